package controller_test

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaignModel "masjidfund_backend/internals/features/donations/campaigns/model"
	campaignRepo "masjidfund_backend/internals/features/donations/campaigns/repository"
	"masjidfund_backend/internals/features/donations/donations/controller"
	donationRepo "masjidfund_backend/internals/features/donations/donations/repository"
	"masjidfund_backend/internals/features/donations/donations/model"
	"masjidfund_backend/internals/features/donations/donations/routes"
	"masjidfund_backend/internals/features/donations/donations/service"
)

const (
	donorToken = "donor-token"
	imamToken  = "imam-token"
	serverKey  = "SB-Mid-server-test-key"
)

/* =======================================================================
   Fakes
======================================================================= */

type memCampaigns struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*campaignModel.Campaign
	getErr    error

	// sawDeadline records whether GetByID received the request-scoped
	// timeout context rather than a bare one.
	sawDeadline bool
}

func (s *memCampaigns) GetByID(ctx context.Context, id uuid.UUID) (*campaignModel.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ctx.Deadline(); ok {
		s.sawDeadline = true
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	c, ok := s.campaigns[id]
	if !ok {
		return nil, campaignRepo.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCampaigns) IncrementAmountRaised(ctx context.Context, id uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return errors.New("record not found")
	}
	c.CampaignAmountRaised += amount
	return nil
}

type memDonations struct {
	mu        sync.Mutex
	donations map[uuid.UUID]*model.Donation
	findErr   error
}

func newMemDonations() *memDonations {
	return &memDonations{donations: map[uuid.UUID]*model.Donation{}}
}

func (s *memDonations) Create(ctx context.Context, m *model.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.donations[m.DonationID] = &cp
	return nil
}

func (s *memDonations) SetPaymentIntentID(ctx context.Context, id uuid.UUID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.donations[id]; ok {
		d.DonationPaymentIntentID = &intentID
		return nil
	}
	return errors.New("record not found")
}

func (s *memDonations) SetCheckoutSessionID(ctx context.Context, id uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.donations[id]; ok {
		d.DonationCheckoutSessionID = &sessionID
		return nil
	}
	return errors.New("record not found")
}

func (s *memDonations) FindByIntentAndUser(ctx context.Context, intentID string, userID uuid.UUID) (*model.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, d := range s.donations {
		if d.DonationPaymentIntentID != nil && *d.DonationPaymentIntentID == intentID && d.DonationUserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, donationRepo.ErrDonationNotFound
}

func (s *memDonations) FindByHandle(ctx context.Context, handle string) (*model.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, d := range s.donations {
		if d.DonationID.String() == handle ||
			(d.DonationPaymentIntentID != nil && *d.DonationPaymentIntentID == handle) ||
			(d.DonationCheckoutSessionID != nil && *d.DonationCheckoutSessionID == handle) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, donationRepo.ErrDonationNotFound
}

func (s *memDonations) MarkCompleted(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return false, errors.New("record not found")
	}
	if d.DonationStatus != model.DonationStatusPending {
		return false, nil
	}
	d.DonationStatus = model.DonationStatusCompleted
	d.DonationPaidAt = &paidAt
	return true, nil
}

func (s *memDonations) MarkFailed(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.donations[id]; ok && d.DonationStatus == model.DonationStatusPending {
		d.DonationStatus = model.DonationStatusFailed
	}
	return nil
}

func (s *memDonations) LogGatewayEvent(ctx context.Context, ev *model.DonationGatewayEvent) error {
	return nil
}

func (s *memDonations) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Donation
	for _, d := range s.donations {
		if d.DonationUserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *memDonations) ListAll(ctx context.Context, offset, limit int) ([]model.Donation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Donation
	for _, d := range s.donations {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

type stubGateway struct {
	mu      sync.Mutex
	intents map[string]service.IntentStatus
	seq     int
	fail    bool
}

func (g *stubGateway) CreateIntent(ctx context.Context, in service.CreateIntentInput) (*service.PaymentHandle, error) {
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("pi_test_%d", g.seq)
	g.intents[id] = service.IntentStatusProcessing
	return &service.PaymentHandle{IntentID: id, ClientSecret: id + "_secret"}, nil
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, in service.CreateCheckoutInput) (*service.CheckoutSession, error) {
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	intentID := fmt.Sprintf("pi_test_%d", g.seq)
	g.intents[intentID] = service.IntentStatusProcessing
	return &service.CheckoutSession{
		SessionID: fmt.Sprintf("cs_test_%d", g.seq),
		IntentID:  intentID,
		URL:       "https://checkout.example.com/pay",
	}, nil
}

func (g *stubGateway) RetrieveIntent(ctx context.Context, intentID string) (*service.GatewayIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.intents[intentID]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return &service.GatewayIntent{IntentID: intentID, Status: st}, nil
}

type stubVerifier struct {
	principals map[string]*service.Principal
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (*service.Principal, error) {
	if p, ok := v.principals[token]; ok {
		return p, nil
	}
	return nil, errors.New("invalid or expired token")
}

/* =======================================================================
   Harness
======================================================================= */

type testEnv struct {
	app       *fiber.App
	gateway   *stubGateway
	campaigns *memCampaigns
	donations *memDonations
	campaign  *campaignModel.Campaign
	donorID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	donorID := uuid.New()
	campaign := &campaignModel.Campaign{
		CampaignID:     uuid.New(),
		CampaignImamID: uuid.New(),
		CampaignTitle:  "Pembangunan TPA",
		CampaignStatus: campaignModel.CampaignStatusActive,
	}

	campaigns := &memCampaigns{campaigns: map[uuid.UUID]*campaignModel.Campaign{campaign.CampaignID: campaign}}
	donations := newMemDonations()
	gateway := &stubGateway{intents: map[string]service.IntentStatus{}}
	verifier := &stubVerifier{principals: map[string]*service.Principal{
		donorToken: {UserID: donorID, Role: "user"},
		imamToken:  {UserID: uuid.New(), Role: "imam"},
	}}

	orch := service.NewOrchestrator(campaigns, donations, gateway, verifier)
	webhook := service.NewWebhookProcessor(donations, campaigns, serverKey)
	ctrl := controller.NewDonationController(orch, webhook, donations)

	app := fiber.New()
	// Same request-scoped timeout the server installs in main.
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	api := app.Group("/api")
	routes.DonationUserRoutes(api, ctrl)
	routes.DonationWebhookRoutes(api, ctrl)

	return &testEnv{
		app:       app,
		gateway:   gateway,
		campaigns: campaigns,
		donations: donations,
		campaign:  campaign,
		donorID:   donorID,
	}
}

func (e *testEnv) request(t *testing.T, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp, parsed
}

func checkoutBody(campaignID string, amount int64) string {
	return fmt.Sprintf(`{"campaignId":%q,"amount":%d}`, campaignID, amount)
}

/* =======================================================================
   POST /api/donations/campaign/checkout
======================================================================= */

func TestCheckoutEndpoint(t *testing.T) {
	path := "/api/donations/campaign/checkout"

	t.Run("success returns url, session and donation ids", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), donorToken)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "https://checkout.example.com/pay", body["url"])
		assert.Equal(t, "cs_test_1", body["sessionId"])
		assert.NotEmpty(t, body["donationId"])
	})

	t.Run("missing bearer credential", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("non-donor role", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), imamToken)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("malformed body", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", path, `{"campaignId":`, donorToken)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("non-numeric amount", func(t *testing.T) {
		e := newTestEnv(t)

		resp, _ := e.request(t, "POST", path,
			fmt.Sprintf(`{"campaignId":%q,"amount":"lots"}`, e.campaign.CampaignID), donorToken)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing campaign id", func(t *testing.T) {
		e := newTestEnv(t)

		resp, _ := e.request(t, "POST", path, `{"amount":100}`, donorToken)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("zero and negative amounts", func(t *testing.T) {
		e := newTestEnv(t)

		for _, amount := range []int64{0, -10} {
			resp, _ := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), amount), donorToken)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "amount %d", amount)
		}

		// rejected at the boundary: no ledger rows, no gateway calls
		e.donations.mu.Lock()
		assert.Empty(t, e.donations.donations)
		e.donations.mu.Unlock()
		assert.Equal(t, 0, e.gateway.seq)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", path, checkoutBody(uuid.NewString(), 100), donorToken)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("inactive campaign", func(t *testing.T) {
		e := newTestEnv(t)
		e.campaign.CampaignStatus = campaignModel.CampaignStatusCompleted

		resp, _ := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), donorToken)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("gateway failure", func(t *testing.T) {
		e := newTestEnv(t)
		e.gateway.fail = true

		resp, body := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), donorToken)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("campaign store failure answers 500, not 404", func(t *testing.T) {
		e := newTestEnv(t)
		e.campaigns.getErr = errors.New("pq: connection refused")

		resp, body := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), donorToken)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("store calls observe the request timeout context", func(t *testing.T) {
		e := newTestEnv(t)

		resp, _ := e.request(t, "POST", path, checkoutBody(e.campaign.CampaignID.String(), 100), donorToken)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, e.campaigns.sawDeadline)
	})
}

/* =======================================================================
   Intent + confirm endpoints
======================================================================= */

func TestIntentAndConfirmEndpoints(t *testing.T) {
	intentPath := "/api/donations/campaign/intent"
	confirmPath := "/api/donations/campaign/confirm"

	t.Run("intent then confirm", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", intentPath, checkoutBody(e.campaign.CampaignID.String(), 200), donorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		intentID, _ := body["paymentIntentId"].(string)
		require.NotEmpty(t, intentID)
		assert.NotEmpty(t, body["clientSecret"])

		// settle gateway-side, then confirm
		e.gateway.intents[intentID] = service.IntentStatusSucceeded

		resp, body = e.request(t, "POST", confirmPath,
			fmt.Sprintf(`{"paymentIntentId":%q}`, intentID), donorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(200), body["amount"])
		assert.Equal(t, false, body["alreadyConfirmed"])
		assert.Equal(t, int64(200), e.campaign.CampaignAmountRaised)

		// second confirm is a no-op
		resp, body = e.request(t, "POST", confirmPath,
			fmt.Sprintf(`{"paymentIntentId":%q}`, intentID), donorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["alreadyConfirmed"])
		assert.Equal(t, int64(200), e.campaign.CampaignAmountRaised)
	})

	t.Run("confirm before the gateway settles", func(t *testing.T) {
		e := newTestEnv(t)

		resp, body := e.request(t, "POST", intentPath, checkoutBody(e.campaign.CampaignID.String(), 200), donorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		intentID, _ := body["paymentIntentId"].(string)

		resp, body = e.request(t, "POST", confirmPath,
			fmt.Sprintf(`{"paymentIntentId":%q}`, intentID), donorToken)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Payment not completed", body["error"])
	})

	t.Run("confirm requires a token and an intent id", func(t *testing.T) {
		e := newTestEnv(t)

		resp, _ := e.request(t, "POST", confirmPath, `{"paymentIntentId":"pi_x"}`, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		resp, _ = e.request(t, "POST", confirmPath, `{}`, donorToken)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

/* =======================================================================
   Webhook endpoint
======================================================================= */

func TestWebhookEndpoint(t *testing.T) {
	path := "/api/donations/notification"

	sign := func(orderID, statusCode, gross string) string {
		sum := sha512.Sum512([]byte(orderID + statusCode + gross + serverKey))
		return hex.EncodeToString(sum[:])
	}

	notifBody := func(orderID, status string) string {
		return fmt.Sprintf(
			`{"order_id":%q,"status_code":"200","gross_amount":"150.00","transaction_status":%q,"signature_key":%q}`,
			orderID, status, sign(orderID, "200", "150.00"))
	}

	t.Run("settlement completes the donation", func(t *testing.T) {
		e := newTestEnv(t)

		_, body := e.request(t, "POST", "/api/donations/campaign/checkout",
			checkoutBody(e.campaign.CampaignID.String(), 150), donorToken)
		donationID, _ := body["donationId"].(string)
		require.NotEmpty(t, donationID)

		resp, _ := e.request(t, "POST", path, notifBody(donationID, "settlement"), "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		id := uuid.MustParse(donationID)
		d, err := e.donations.FindByHandle(context.Background(), id.String())
		require.NoError(t, err)
		assert.Equal(t, model.DonationStatusCompleted, d.DonationStatus)
		assert.Equal(t, int64(150), e.campaign.CampaignAmountRaised)
	})

	t.Run("invalid signature", func(t *testing.T) {
		e := newTestEnv(t)

		body := fmt.Sprintf(
			`{"order_id":%q,"status_code":"200","gross_amount":"150.00","transaction_status":"settlement","signature_key":"bad"}`,
			uuid.NewString())
		resp, parsed := e.request(t, "POST", path, body, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, parsed["success"])
	})

	t.Run("unknown order id still answers 200", func(t *testing.T) {
		e := newTestEnv(t)

		resp, _ := e.request(t, "POST", path, notifBody(uuid.NewString(), "settlement"), "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("ledger failure answers 500 so the gateway retries", func(t *testing.T) {
		e := newTestEnv(t)
		e.donations.findErr = errors.New("pq: connection refused")

		resp, parsed := e.request(t, "POST", path, notifBody(uuid.NewString(), "settlement"), "")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, false, parsed["success"])
	})
}

/* =======================================================================
   GET /api/donations/me
======================================================================= */

func TestMyDonationsEndpoint(t *testing.T) {
	t.Run("requires a valid token", func(t *testing.T) {
		e := newTestEnv(t)

		resp, _ := e.request(t, "GET", "/api/donations/me", "", "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		resp, _ = e.request(t, "GET", "/api/donations/me", "", "garbage")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lists only the caller's donations", func(t *testing.T) {
		e := newTestEnv(t)

		_, _ = e.request(t, "POST", "/api/donations/campaign/checkout",
			checkoutBody(e.campaign.CampaignID.String(), 150), donorToken)

		// someone else's donation
		require.NoError(t, e.donations.Create(context.Background(), &model.Donation{
			DonationID:         uuid.New(),
			DonationCampaignID: e.campaign.CampaignID,
			DonationUserID:     uuid.New(),
			DonationAmount:     999,
			DonationStatus:     model.DonationStatusPending,
		}))

		resp, body := e.request(t, "GET", "/api/donations/me", "", donorToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		rows, ok := body["data"].([]any)
		require.True(t, ok, "data: %#v", body["data"])
		require.Len(t, rows, 1)
		row := rows[0].(map[string]any)
		assert.Equal(t, e.donorID.String(), row["donation_user_id"])
	})
}
