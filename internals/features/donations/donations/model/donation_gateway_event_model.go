package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	GatewayEventStatusReceived  = "received"
	GatewayEventStatusProcessed = "processed"
	GatewayEventStatusFailed    = "failed"
)

// donation_gateway_events = webhook/callback audit log.
// Multiple rows per donation are possible (one per delivery attempt);
// raw headers and payload are kept for debugging and replay.
type DonationGatewayEvent struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`

	GatewayEventDonationID *uuid.UUID `gorm:"column:gateway_event_donation_id;type:uuid;index" json:"gateway_event_donation_id,omitempty"`

	GatewayEventProvider   string  `gorm:"column:gateway_event_provider;type:varchar(50);not null" json:"gateway_event_provider"`
	GatewayEventType       *string `gorm:"column:gateway_event_type" json:"gateway_event_type,omitempty"`
	GatewayEventExternalID *string `gorm:"column:gateway_event_external_id" json:"gateway_event_external_id,omitempty"`

	GatewayEventHeaders datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`

	GatewayEventStatus string  `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;autoCreateTime" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (DonationGatewayEvent) TableName() string { return "donation_gateway_events" }
