package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"masjidfund_backend/internals/constants"
	"masjidfund_backend/internals/features/donations/campaigns/dto"
	"masjidfund_backend/internals/features/donations/campaigns/model"
	"masjidfund_backend/internals/features/donations/campaigns/repository"
	helper "masjidfund_backend/internals/helpers"
)

type CampaignController struct {
	Repo      *repository.CampaignRepository
	Validator *validator.Validate
}

func NewCampaignController(db *gorm.DB) *CampaignController {
	return &CampaignController{
		Repo:      repository.NewCampaignRepository(db),
		Validator: validator.New(),
	}
}

// POST /api/a/campaigns — imam/admin only (role middleware on the route).
// The creating imam becomes the owning principal.
func (ctrl *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var body dto.CreateCampaignRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := ctrl.Validator.Struct(&body); err != nil {
		return helper.JsonValidationError(c, validationFields(err))
	}

	imamID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return helper.JsonError(c, fe.Code, fe.Message)
		}
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	m := body.ToModel(imamID)
	if err := ctrl.Repo.Create(c.UserContext(), m); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "create campaign failed: "+err.Error())
	}
	return helper.JsonCreated(c, "campaign created", m)
}

// PATCH /api/a/campaigns/:id — only the owning imam (or an admin) may edit.
func (ctrl *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid campaign id")
	}

	m, err := ctrl.Repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "campaign not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	callerID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return helper.JsonError(c, fe.Code, fe.Message)
		}
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	role, _ := helper.GetUserRoleFromToken(c)
	if role != constants.RoleAdmin && m.CampaignImamID != callerID {
		return helper.JsonError(c, fiber.StatusForbidden, "you do not own this campaign")
	}

	var patch dto.UpdateCampaignRequest
	if err := c.BodyParser(&patch); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := ctrl.Validator.Struct(&patch); err != nil {
		return helper.JsonValidationError(c, validationFields(err))
	}

	patch.Apply(m)
	if err := ctrl.Repo.Update(c.UserContext(), m); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "update campaign failed: "+err.Error())
	}
	return helper.JsonUpdated(c, "campaign updated", m)
}

// DELETE /api/a/campaigns/:id — only the owning imam (or an admin) may
// remove a campaign. Soft delete; donation rows keep their campaign id.
func (ctrl *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid campaign id")
	}

	m, err := ctrl.Repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "campaign not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	callerID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return helper.JsonError(c, fe.Code, fe.Message)
		}
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	role, _ := helper.GetUserRoleFromToken(c)
	if role != constants.RoleAdmin && m.CampaignImamID != callerID {
		return helper.JsonError(c, fiber.StatusForbidden, "you do not own this campaign")
	}

	if err := ctrl.Repo.Delete(c.UserContext(), id); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "delete campaign failed: "+err.Error())
	}
	return helper.JsonDeleted(c, "campaign deleted", fiber.Map{"campaign_id": id})
}

// GET /api/campaigns — public list, ?status= filter (default active).
func (ctrl *CampaignController) ListCampaigns(c *fiber.Ctx) error {
	status := c.Query("status", model.CampaignStatusActive)
	if status == "all" {
		status = ""
	}

	paging := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Repo.List(c.UserContext(), status, paging.Offset, paging.Limit)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "list campaigns failed: "+err.Error())
	}

	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/campaigns/:id — public detail.
func (ctrl *CampaignController) GetCampaignByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid campaign id")
	}

	m, err := ctrl.Repo.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "campaign not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", m)
}

func validationFields(err error) map[string][]string {
	fields := map[string][]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = append(fields[fe.Field()], fe.Tag())
		}
	}
	return fields
}
