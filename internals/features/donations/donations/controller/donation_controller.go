package controller

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"masjidfund_backend/internals/constants"
	"masjidfund_backend/internals/features/donations/donations/dto"
	"masjidfund_backend/internals/features/donations/donations/model"
	"masjidfund_backend/internals/features/donations/donations/service"
	helper "masjidfund_backend/internals/helpers"
)

// ListStore covers the read-only queries the controller serves directly.
type ListStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Donation, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.Donation, int64, error)
}

type DonationController struct {
	Orchestrator *service.Orchestrator
	Webhook      *service.WebhookProcessor
	Store        ListStore
	Validator    *validator.Validate
}

func NewDonationController(orch *service.Orchestrator, webhook *service.WebhookProcessor, store ListStore) *DonationController {
	return &DonationController{
		Orchestrator: orch,
		Webhook:      webhook,
		Store:        store,
		Validator:    validator.New(),
	}
}

/* =======================================================================
   Response shape of the donation endpoints:
     200 -> {success:true, ...}
     err -> {success:false, error: message}
======================================================================= */

func jsonFail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrCampaignNotActive),
		errors.Is(err, service.ErrPaymentNotCompleted):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrCampaignNotFound),
		errors.Is(err, service.ErrDonationNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// parseDonationRequest does the boundary half of the double validation:
// malformed JSON (including non-numeric amounts), a missing campaign id or
// a non-positive amount are all rejected before any store or gateway call.
func (ctrl *DonationController) parseDonationRequest(c *fiber.Ctx) (*dto.CreateDonationRequest, string, error) {
	token := helper.GetRawAccessToken(c)
	if token == "" {
		return nil, "", fiber.NewError(fiber.StatusUnauthorized, "missing or invalid authorization")
	}

	var body dto.CreateDonationRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(body.CampaignID) == "" {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "campaignId is required")
	}
	if body.Amount <= 0 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "amount must be a positive number")
	}
	return &body, token, nil
}

// POST /api/donations/campaign/checkout
func (ctrl *DonationController) CreateCheckoutSession(c *fiber.Ctx) error {
	body, token, err := ctrl.parseDonationRequest(c)
	if err != nil {
		fe := err.(*fiber.Error)
		return jsonFail(c, fe.Code, fe.Message)
	}

	res, err := ctrl.Orchestrator.CreateDonationCheckoutSession(c.UserContext(), body.CampaignID, body.Amount, token)
	if err != nil {
		return jsonFail(c, statusForServiceError(err), err.Error())
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"url":        res.URL,
		"sessionId":  res.SessionID,
		"donationId": res.DonationID,
	})
}

// POST /api/donations/campaign/intent
func (ctrl *DonationController) CreateDonationIntent(c *fiber.Ctx) error {
	body, token, err := ctrl.parseDonationRequest(c)
	if err != nil {
		fe := err.(*fiber.Error)
		return jsonFail(c, fe.Code, fe.Message)
	}

	res, err := ctrl.Orchestrator.CreateDonationIntent(c.UserContext(), body.CampaignID, body.Amount, token)
	if err != nil {
		return jsonFail(c, statusForServiceError(err), err.Error())
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"clientSecret":    res.ClientSecret,
		"paymentIntentId": res.PaymentIntentID,
		"donationId":      res.DonationID,
	})
}

// POST /api/donations/campaign/confirm
func (ctrl *DonationController) ConfirmDonation(c *fiber.Ctx) error {
	token := helper.GetRawAccessToken(c)
	if token == "" {
		return jsonFail(c, fiber.StatusUnauthorized, "missing or invalid authorization")
	}

	var body dto.ConfirmDonationRequest
	if err := c.BodyParser(&body); err != nil {
		return jsonFail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validator.Struct(&body); err != nil || strings.TrimSpace(body.PaymentIntentID) == "" {
		return jsonFail(c, fiber.StatusBadRequest, "paymentIntentId is required")
	}

	res, err := ctrl.Orchestrator.ConfirmCampaignDonation(c.UserContext(), body.PaymentIntentID, token)
	if err != nil {
		return jsonFail(c, statusForServiceError(err), err.Error())
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"donationId":       res.DonationID,
		"amount":           res.Amount,
		"alreadyConfirmed": res.AlreadyConfirmed,
	})
}

// GET /api/donations/me — caller's donation history.
func (ctrl *DonationController) GetMyDonations(c *fiber.Ctx) error {
	token := helper.GetRawAccessToken(c)
	if token == "" {
		return jsonFail(c, fiber.StatusUnauthorized, "missing or invalid authorization")
	}

	p, err := ctrl.Orchestrator.Verifier.Verify(c.UserContext(), token)
	if err != nil {
		return jsonFail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	rows, err := ctrl.Store.ListByUser(c.UserContext(), p.UserID)
	if err != nil {
		return jsonFail(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", rows)
}

// GET /api/a/donations — full ledger, admin only.
func (ctrl *DonationController) GetAllDonations(c *fiber.Ctx) error {
	token := helper.GetRawAccessToken(c)
	if token == "" {
		return jsonFail(c, fiber.StatusUnauthorized, "missing or invalid authorization")
	}

	p, err := ctrl.Orchestrator.Verifier.Verify(c.UserContext(), token)
	if err != nil || p.Role != constants.RoleAdmin {
		return jsonFail(c, fiber.StatusForbidden, "admin role required")
	}

	paging := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Store.ListAll(c.UserContext(), paging.Offset, paging.Limit)
	if err != nil {
		return jsonFail(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// POST /api/donations/notification — gateway webhook, no auth, signature
// verified instead. Unknown order ids are answered 200 so the gateway
// stops retrying.
func (ctrl *DonationController) HandleGatewayNotification(c *fiber.Ctx) error {
	var notif service.GatewayNotification
	if err := c.BodyParser(&notif); err != nil {
		return jsonFail(c, fiber.StatusBadRequest, "invalid webhook payload")
	}

	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		headers[k] = strings.Join(v, ",")
	}

	if err := ctrl.Webhook.Process(c.UserContext(), &notif, headers); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			return jsonFail(c, fiber.StatusUnauthorized, "invalid signature")
		case errors.Is(err, service.ErrDonationNotFound):
			return helper.JsonOK(c, "ignored: donation not found", fiber.Map{
				"order_id": notif.OrderID,
				"status":   "ignored",
			})
		default:
			log.Println("[ERROR] webhook processing failed:", err)
			return jsonFail(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return helper.JsonOK(c, "webhook processed", fiber.Map{
		"order_id":           notif.OrderID,
		"transaction_status": notif.TransactionStatus,
	})
}
