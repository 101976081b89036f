package handler

import (
	"context"
	"net/http"
	"strings"

	"eclipse_backend/internal/pipeline/domain"
	"eclipse_backend/internal/pipeline/service"
	"eclipse_backend/internal/pipeline/transport"
	"eclipse_backend/platform/httpkit"
	"eclipse_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingClientID  = "client id is required"
)

// SyncEnqueuer schedules a tenant resync in the background job queue.
type SyncEnqueuer interface {
	EnqueuePipelineSync(ctx context.Context, tenantID uuid.UUID) error
}

// Handler handles HTTP requests for the pipeline
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer SyncEnqueuer // nil disables ?async=true
	// manualStatusRole gates PUT /clients/:id/status when set.
	manualStatusRole string
}

// New creates a new pipeline handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetSyncEnqueuer injects the background job client used for async resyncs.
func (h *Handler) SetSyncEnqueuer(enqueuer SyncEnqueuer) {
	h.enqueuer = enqueuer
}

// SetManualStatusRole restricts manual status overrides to callers holding role.
// Must be called before RegisterRoutes.
func (h *Handler) SetManualStatusRole(role string) {
	h.manualStatusRole = strings.TrimSpace(role)
}

// RegisterRoutes registers the pipeline routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/statuses", h.ListStatuses)
	rg.GET("/kpis", h.GetKPIs)
	rg.POST("/sync", h.SyncTenant)
	rg.POST("/clients/:id/sync", h.SyncClient)
	rg.POST("/clients/:id/actions", h.RecordAction)

	setStatus := []gin.HandlerFunc{h.SetStatus}
	if h.manualStatusRole != "" {
		setStatus = append([]gin.HandlerFunc{httpkit.RequireRole(h.manualStatusRole)}, setStatus...)
	}
	rg.PUT("/clients/:id/status", setStatus...)
}

// ListStatuses handles GET /api/v1/pipeline/statuses
func (h *Handler) ListStatuses(c *gin.Context) {
	labels := h.svc.Labels()
	resp := make([]transport.StatusLabelResponse, len(labels))
	for i, l := range labels {
		resp[i] = transport.StatusLabelResponse{Value: string(l.Status), Label: l.Label}
	}
	httpkit.OK(c, resp)
}

// GetKPIs handles GET /api/v1/pipeline/kpis
func (h *Handler) GetKPIs(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	kpis, err := h.svc.KPIs(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToKPIResponse(kpis))
}

// SyncTenant handles POST /api/v1/pipeline/sync
func (h *Handler) SyncTenant(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	if strings.EqualFold(c.Query("async"), "true") {
		if h.enqueuer == nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "background jobs are not configured", nil)
			return
		}
		if err := h.enqueuer.EnqueuePipelineSync(c.Request.Context(), tenantID); httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.SyncQueuedResponse{Queued: true})
		return
	}

	report, err := h.svc.SyncTenant(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SyncReportResponse{
		Checked: report.Checked,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Failed:  report.Failed,
	})
}

// SyncClient handles POST /api/v1/pipeline/clients/:id/sync
func (h *Handler) SyncClient(c *gin.Context) {
	tenantID, clientID, ok := h.clientScope(c)
	if !ok {
		return
	}

	change, err := h.svc.SyncClient(c.Request.Context(), tenantID, clientID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toClientStatusResponse(change))
}

// RecordAction handles POST /api/v1/pipeline/clients/:id/actions
func (h *Handler) RecordAction(c *gin.Context) {
	var req transport.RecordActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	tenantID, clientID, ok := h.clientScope(c)
	if !ok {
		return
	}

	change, err := h.svc.RecordAction(c.Request.Context(), tenantID, clientID, domain.Action(req.Action))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toClientStatusResponse(change))
}

// SetStatus handles PUT /api/v1/pipeline/clients/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	var req transport.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	tenantID, clientID, ok := h.clientScope(c)
	if !ok {
		return
	}

	change, err := h.svc.SetManualStatus(c.Request.Context(), tenantID, clientID, domain.Status(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toClientStatusResponse(change))
}

func (h *Handler) clientScope(c *gin.Context) (uuid.UUID, string, bool) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	clientID := strings.TrimSpace(c.Param("id"))
	if clientID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingClientID, nil)
		return uuid.Nil, "", false
	}
	return tenantID, clientID, true
}

func toClientStatusResponse(change service.StatusChange) transport.ClientStatusResponse {
	resp := transport.ClientStatusResponse{
		ClientID: change.ClientID,
		Status:   string(change.Status),
		Label:    domain.PipelineStatusLabel(change.Status),
		Updated:  change.Updated,
		Skipped:  change.Skipped,
	}
	if change.Previous != nil {
		resp.PreviousStatus = string(*change.Previous)
	}
	return resp
}
