package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"assistance-backend/internal/usecase/assistance"
)

type AssistanceHandler struct{ uc *assistance.Lifecycle }

func NewAssistanceHandler(uc *assistance.Lifecycle) *AssistanceHandler {
	return &AssistanceHandler{uc: uc}
}

type createAssistanceReq struct {
	BeneficiaryID    string `json:"beneficiary_id"     validate:"required,hex32"`
	AssistanceType   string `json:"assistance_type"    validate:"required"`
	CampaignID       string `json:"campaign_id"        validate:"omitempty,hex32"`
	TypeDetailID     string `json:"type_detail_id"`
	AssistanceDate   string `json:"assistance_date"    validate:"omitempty,datetime=2006-01-02"`
	Amount           string `json:"amount"             validate:"omitempty,money"`
	Priority         string `json:"priority"           validate:"omitempty,oneof=low normal high urgent"`
	Observations     string `json:"observations"`
	Decision         string `json:"decision"`
	NatureTag        string `json:"nature_tag"`
	PerformedBySelf  bool   `json:"performed_by_self"`
	PerformedByStaff string `json:"performed_by_staff"`
	LoanDurationDays *int   `json:"loan_duration_days" validate:"omitempty,gte=1,lte=3650"`
}

type validateReq struct {
	Comment string `json:"comment"`
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required"`
}

type paymentReq struct {
	Amount    string `json:"amount"    validate:"required,money"`
	Mode      string `json:"mode"      validate:"required,oneof=cash check transfer mandate"`
	Reference string `json:"reference"`
}

type feedbackReq struct {
	Satisfaction int    `json:"satisfaction" validate:"required,gte=1,lte=5"`
	Text         string `json:"text"`
}

type returnReq struct {
	ReturnedAt  string `json:"returned_at" validate:"omitempty,datetime=2006-01-02"`
	Observation string `json:"observation"`
}

type loanTermsReq struct {
	AssistanceDate   *string `json:"assistance_date"    validate:"omitempty,datetime=2006-01-02"`
	LoanDurationDays *int    `json:"loan_duration_days" validate:"omitempty,gte=1,lte=3650"`
	PerformedBySelf  *bool   `json:"performed_by_self"`
	PerformedByStaff *string `json:"performed_by_staff"`
}

type remindersReq struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

func (h *AssistanceHandler) CreateAssistance(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req createAssistanceReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := assistance.CreateInput{
		BeneficiaryID:    req.BeneficiaryID,
		AssistanceType:   req.AssistanceType,
		CampaignID:       req.CampaignID,
		TypeDetailID:     req.TypeDetailID,
		AssistanceDate:   parseDate(req.AssistanceDate),
		Amount:           parseMoney(req.Amount),
		Priority:         req.Priority,
		Observations:     req.Observations,
		Decision:         req.Decision,
		NatureTag:        req.NatureTag,
		PerformedBySelf:  req.PerformedBySelf,
		PerformedByStaff: req.PerformedByStaff,
		LoanDurationDays: req.LoanDurationDays,
	}
	dto, err := h.uc.Create(c.Request().Context(), in, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AssistanceHandler) GetAssistance(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AssistanceHandler) Validate(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req validateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	return h.respond(c)(h.uc.Validate(c.Request().Context(), c.Param("id"), actor, req.Comment))
}

func (h *AssistanceHandler) Reject(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req rejectReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	return h.respond(c)(h.uc.Reject(c.Request().Context(), c.Param("id"), actor, req.Reason))
}

func (h *AssistanceHandler) RecordPayment(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req paymentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := assistance.PaymentInput{Amount: parseMoney(req.Amount), Mode: req.Mode, Reference: req.Reference}
	return h.respond(c)(h.uc.RecordPayment(c.Request().Context(), c.Param("id"), in, actor))
}

func (h *AssistanceHandler) Complete(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	return h.respond(c)(h.uc.Complete(c.Request().Context(), c.Param("id"), actor))
}

func (h *AssistanceHandler) RecordFeedback(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req feedbackReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	return h.respond(c)(h.uc.RecordFeedback(c.Request().Context(), c.Param("id"), req.Satisfaction, req.Text, actor))
}

func (h *AssistanceHandler) RecordReturn(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req returnReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	return h.respond(c)(h.uc.RecordEquipmentReturn(c.Request().Context(), c.Param("id"), parseDate(req.ReturnedAt), req.Observation, actor))
}

func (h *AssistanceHandler) UpdateLoanTerms(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req loanTermsReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := assistance.LoanTermsInput{
		LoanDurationDays: req.LoanDurationDays,
		PerformedBySelf:  req.PerformedBySelf,
		PerformedByStaff: req.PerformedByStaff,
	}
	if req.AssistanceDate != nil {
		d := parseDate(*req.AssistanceDate)
		in.AssistanceDate = &d
	}
	return h.respond(c)(h.uc.UpdateLoanTerms(c.Request().Context(), c.Param("id"), in, actor))
}

func (h *AssistanceHandler) DeleteAssistance(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	if err := h.uc.Tombstone(c.Request().Context(), c.Param("id"), actor); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AssistanceHandler) ListOverdueLoans(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("as_of"))
	asOf, err := parseQueryDate(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "as_of must be YYYY-MM-DD"})
	}
	out, err := h.uc.ListOverdueLoans(c.Request().Context(), asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (h *AssistanceHandler) SendReminders(c echo.Context) error {
	actor, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req remindersReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	sent, err := h.uc.SendOverdueReminders(c.Request().Context(), parseDate(req.AsOf), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"sent": sent})
}

func (h *AssistanceHandler) GetAuditTrail(c echo.Context) error {
	out, err := h.uc.GetAuditTrail(c.Request().Context(), c.Param("subject_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (h *AssistanceHandler) respond(c echo.Context) func(*assistance.AssistanceDTO, error) error {
	return func(dto *assistance.AssistanceDTO, err error) error {
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, dto)
	}
}

// parseDate reads a validated YYYY-MM-DD value; empty yields the zero time.
func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func parseQueryDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
