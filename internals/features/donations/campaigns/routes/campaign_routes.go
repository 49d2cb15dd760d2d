package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"masjidfund_backend/internals/constants"
	campaignController "masjidfund_backend/internals/features/donations/campaigns/controller"
	authMiddleware "masjidfund_backend/internals/middlewares/auth"
)

// CampaignPublicRoutes: browsing campaigns requires no login.
func CampaignPublicRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := campaignController.NewCampaignController(db)

	campaigns := api.Group("/campaigns")
	campaigns.Get("/", ctrl.ListCampaigns)
	campaigns.Get("/:id", ctrl.GetCampaignByID)
}

// CampaignAdminRoutes: campaign management for imam/admin.
func CampaignAdminRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := campaignController.NewCampaignController(db)

	campaigns := api.Group("/campaigns",
		authMiddleware.OnlyRoles(
			constants.RoleErrorImam("campaign management"),
			constants.ImamAndAbove...,
		),
	)
	campaigns.Post("/", ctrl.CreateCampaign)
	campaigns.Patch("/:id", ctrl.UpdateCampaign)
	campaigns.Delete("/:id", ctrl.DeleteCampaign)
}
