package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"assistance-backend/internal/usecase/beneficiary"
)

type BeneficiaryHandler struct{ uc *beneficiary.Registry }

func NewBeneficiaryHandler(uc *beneficiary.Registry) *BeneficiaryHandler {
	return &BeneficiaryHandler{uc: uc}
}

type registerReq struct {
	FullName string `json:"full_name" validate:"required"`
	Decision string `json:"decision"`
}

type decisionReq struct {
	Decision string `json:"decision"`
}

func (h *BeneficiaryHandler) Register(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req registerReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Register(c.Request().Context(), req.FullName, req.Decision, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *BeneficiaryHandler) ChangeDecision(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req decisionReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.ChangeDecision(c.Request().Context(), c.Param("id"), req.Decision, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
