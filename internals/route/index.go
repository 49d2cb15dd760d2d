package route

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"masjidfund_backend/internals/configs"
	campaignRepo "masjidfund_backend/internals/features/donations/campaigns/repository"
	campaignRoutes "masjidfund_backend/internals/features/donations/campaigns/routes"
	donationController "masjidfund_backend/internals/features/donations/donations/controller"
	donationRepo "masjidfund_backend/internals/features/donations/donations/repository"
	donationRoutes "masjidfund_backend/internals/features/donations/donations/routes"
	"masjidfund_backend/internals/features/donations/donations/service"
	authMiddleware "masjidfund_backend/internals/middlewares/auth"
)

// SetupRoutes wires repositories, the payment gateway and the orchestrator,
// then mounts three groups:
//
//	/api   — campaign browsing, donor endpoints (token checked in the
//	         service layer so the error bodies stay uniform) and the
//	         gateway webhook
//	/api/a — imam/admin management, behind AuthMiddleware + role gates
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	campaigns := campaignRepo.NewCampaignRepository(db)
	donations := donationRepo.NewDonationRepository(db)
	verifier := service.NewJWTVerifier(configs.JWTSecret)

	gateway := buildGateway()

	orch := service.NewOrchestrator(campaigns, donations, gateway, verifier)
	orch.Provider = configs.PaymentProvider
	orch.Currency = configs.DonationCurrency
	orch.SuccessURL = configs.CheckoutSuccessURL
	orch.CancelURL = configs.CheckoutCancelURL

	webhook := service.NewWebhookProcessor(donations, campaigns, configs.MidtransServerKey)

	donationCtrl := donationController.NewDonationController(orch, webhook, donations)

	api := app.Group("/api")
	campaignRoutes.CampaignPublicRoutes(api, db)
	donationRoutes.DonationUserRoutes(api, donationCtrl)
	donationRoutes.DonationWebhookRoutes(api, donationCtrl)

	admin := app.Group("/api/a", authMiddleware.AuthMiddleware(configs.JWTSecret))
	campaignRoutes.CampaignAdminRoutes(admin, db)
	donationRoutes.DonationAdminRoutes(admin, donationCtrl)
}

func buildGateway() service.PaymentGateway {
	switch configs.PaymentProvider {
	case "midtrans":
		return service.NewMidtransGateway(configs.MidtransServerKey, configs.MidtransProduction)
	default:
		if configs.PaymentProvider != "stripe" {
			log.Printf("[WARN] unknown PAYMENT_PROVIDER %q, falling back to stripe", configs.PaymentProvider)
		}
		service.InitStripe(configs.StripeSecretKey)
		return service.NewStripeGateway()
	}
}
