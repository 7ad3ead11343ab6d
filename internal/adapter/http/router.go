package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health        *Handler
	Campaigns     *CampaignHandler
	Assistances   *AssistanceHandler
	Beneficiaries *BeneficiaryHandler
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Register mounts every route on e. Middleware (idempotency, logging) is
// installed by the caller.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Health)

	g := h.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))

	e.POST("/campaigns", h.Campaigns.CreateCampaign)
	e.GET("/campaigns/:id", h.Campaigns.GetCampaign)
	e.POST("/campaigns/:id/status", h.Campaigns.ChangeStatus)
	e.DELETE("/campaigns/:id", h.Campaigns.DeleteCampaign)

	e.POST("/beneficiaries", h.Beneficiaries.Register)
	e.PUT("/beneficiaries/:id/decision", h.Beneficiaries.ChangeDecision)

	e.POST("/assistances", h.Assistances.CreateAssistance)
	e.GET("/assistances/:id", h.Assistances.GetAssistance)
	e.DELETE("/assistances/:id", h.Assistances.DeleteAssistance)
	e.POST("/assistances/:id/validate", h.Assistances.Validate)
	e.POST("/assistances/:id/reject", h.Assistances.Reject)
	e.POST("/assistances/:id/payment", h.Assistances.RecordPayment)
	e.POST("/assistances/:id/complete", h.Assistances.Complete)
	e.POST("/assistances/:id/feedback", h.Assistances.RecordFeedback)
	e.POST("/assistances/:id/return", h.Assistances.RecordReturn)
	e.PUT("/assistances/:id/loan-terms", h.Assistances.UpdateLoanTerms)

	e.GET("/loans/overdue", h.Assistances.ListOverdueLoans)
	e.POST("/loans/reminders", h.Assistances.SendReminders)

	e.GET("/audit/:subject_id", h.Assistances.GetAuditTrail)
}
