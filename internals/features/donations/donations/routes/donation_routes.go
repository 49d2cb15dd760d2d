package routes

import (
	"github.com/gofiber/fiber/v2"

	"masjidfund_backend/internals/constants"
	"masjidfund_backend/internals/features/donations/donations/controller"
	"masjidfund_backend/internals/middlewares/auth"
)

// DonationUserRoutes mounts the donor-facing endpoints on the bare /api
// group. Auth runs in the service layer (bearer token verified per call)
// so the 401 body stays the donation envelope and the donor-role gate also
// covers non-HTTP callers.
func DonationUserRoutes(user fiber.Router, ctrl *controller.DonationController) {
	donations := user.Group("/donations")

	campaign := donations.Group("/campaign")
	campaign.Post("/checkout", ctrl.CreateCheckoutSession)
	campaign.Post("/intent", ctrl.CreateDonationIntent)
	campaign.Post("/confirm", ctrl.ConfirmDonation)

	donations.Get("/me", ctrl.GetMyDonations)
}

// DonationAdminRoutes mounts the full-ledger listing for admins.
func DonationAdminRoutes(admin fiber.Router, ctrl *controller.DonationController) {
	donations := admin.Group("/donations",
		auth.OnlyRoles(constants.RoleErrorAdmin("melihat seluruh donasi"), constants.AdminOnly...),
	)
	donations.Get("/", ctrl.GetAllDonations)
}

// DonationWebhookRoutes mounts the gateway notification endpoint. It is
// public: authenticity comes from the signature check, not a bearer token.
func DonationWebhookRoutes(api fiber.Router, ctrl *controller.DonationController) {
	api.Post("/donations/notification", ctrl.HandleGatewayNotification)
}
