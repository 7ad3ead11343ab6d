package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "assistance-backend/internal/domain/campaign"
	"assistance-backend/internal/usecase/campaign"
)

type CampaignHandler struct{ uc *campaign.Allocator }

func NewCampaignHandler(uc *campaign.Allocator) *CampaignHandler { return &CampaignHandler{uc: uc} }

type createCampaignReq struct {
	Name                string `json:"name"                 validate:"required"`
	AssistanceType      string `json:"assistance_type"      validate:"required"`
	StartDate           string `json:"start_date"           validate:"required,datetime=2006-01-02"`
	EndDate             string `json:"end_date"             validate:"required,datetime=2006-01-02"`
	Budget              string `json:"budget"               validate:"required,money"`
	UnitPrice           string `json:"unit_price"           validate:"omitempty,money"`
	PlannedParticipants int    `json:"planned_participants" validate:"gte=0"`
}

type changeStatusReq struct {
	Status string `json:"status" validate:"required,oneof=active in_progress completed cancelled"`
}

func (h *CampaignHandler) CreateCampaign(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req createCampaignReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	// formats are checked by the validator above
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	budget, _ := decimal.NewFromString(req.Budget)
	unit := decimal.Zero
	if req.UnitPrice != "" {
		unit, _ = decimal.NewFromString(req.UnitPrice)
	}

	dto, err := h.uc.CreateCampaign(c.Request().Context(), campaign.CreateCampaignInput{
		Name:                req.Name,
		AssistanceType:      req.AssistanceType,
		StartDate:           start,
		EndDate:             end,
		Budget:              budget,
		UnitPrice:           unit,
		PlannedParticipants: req.PlannedParticipants,
	}, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CampaignHandler) GetCampaign(c echo.Context) error {
	dto, err := h.uc.GetCampaign(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CampaignHandler) ChangeStatus(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req changeStatusReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.ChangeStatus(c.Request().Context(), c.Param("id"), domain.Status(req.Status), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *CampaignHandler) DeleteCampaign(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	if err := h.uc.Tombstone(c.Request().Context(), c.Param("id"), actor); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
