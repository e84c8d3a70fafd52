package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/rentably/pdc_engine/internal/middleware"
)

// pdcHandler handles HTTP requests for cheque registration, reads and transitions.
type pdcHandler struct {
	registry   portssvc.PDCRegistrySvcFacade
	transition portssvc.TransitionSvcFacade
}

// newPDCHandler creates a new pdcHandler.
func newPDCHandler(registry portssvc.PDCRegistrySvcFacade, transition portssvc.TransitionSvcFacade) *pdcHandler {
	return &pdcHandler{
		registry:   registry,
		transition: transition,
	}
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrConcurrentModification):
		logger.Warn("Transition conflict", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrReconciliationOverflow),
		errors.Is(err, apperrors.ErrReplacementValidation):
		logger.Warn("Business rule violation", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrExternalService):
		logger.Error("External service failure", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service failure"})
	default:
		logger.Error("Unhandled service error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// registerPDCs godoc
// @Summary Register a batch of post-dated cheques
// @Description Creates one or more cheques for a tenant, all starting in RECEIVED
// @Tags pdcs
// @Accept  json
// @Produce  json
// @Param   batch body dto.RegisterPDCsRequest true "Cheque batch"
// @Success 201 {object} dto.ListPDCsResponse "The registered cheques"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to register cheques"
// @Router /pdcs [post]
func (h *pdcHandler) registerPDCs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.RegisterPDCsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for registerPDCs", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pdcs, err := h.registry.RegisterPDCs(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "register cheques")
		return
	}

	c.JSON(http.StatusCreated, dto.ListPDCsResponse{PDCs: dto.ToPDCResponses(pdcs)})
}

// listPDCs godoc
// @Summary List cheques
// @Description Retrieves a filtered, cursor-paginated list of cheques
// @Tags pdcs
// @Produce  json
// @Param   status query string false "Status filter"
// @Param   tenantRef query string false "Tenant filter"
// @Param   dateFrom query string false "Cheque date lower bound (YYYY-MM-DD)"
// @Param   dateTo query string false "Cheque date upper bound (YYYY-MM-DD)"
// @Param   limit query int false "Page size (default 20, max 100)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListPDCsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Router /pdcs [get]
func (h *pdcHandler) listPDCs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListPDCsParams{}
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listPDCs", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.registry.ListPDCs(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, logger, err, "list cheques")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getPDC godoc
// @Summary Get one cheque
// @Description Retrieves a cheque by its ID, including the reminders already delivered for it
// @Tags pdcs
// @Produce  json
// @Param   pdcID path string true "Cheque ID"
// @Success 200 {object} dto.PDCResponse
// @Failure 404 {object} map[string]string "Cheque not found"
// @Router /pdcs/{pdcID} [get]
func (h *pdcHandler) getPDC(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	pdcID := c.Param("pdcID")

	pdc, err := h.registry.GetPDCByID(c.Request.Context(), pdcID)
	if err != nil {
		respondServiceError(c, logger, err, "retrieve cheque")
		return
	}

	fired, err := h.registry.GetReminderHistory(c.Request.Context(), pdcID)
	if err != nil {
		respondServiceError(c, logger, err, "retrieve cheque reminders")
		return
	}

	resp := dto.ToPDCResponse(pdc)
	resp.RemindersFired = dto.ToReminderFiredResponses(fired)
	c.JSON(http.StatusOK, resp)
}

// transitionPDC godoc
// @Summary Transition a cheque to a new status
// @Description Moves a cheque along one legal edge of its lifecycle; the request version must match the stored version
// @Tags pdcs
// @Accept  json
// @Produce  json
// @Param   pdcID path string true "Cheque ID"
// @Param   transition body dto.TransitionRequest true "Target status and expected version"
// @Success 200 {object} dto.PDCResponse "The cheque after the transition"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Cheque not found"
// @Failure 409 {object} map[string]string "Illegal transition or version conflict"
// @Failure 422 {object} map[string]string "Reconciliation overflow"
// @Failure 502 {object} map[string]string "Ledger unavailable"
// @Router /pdcs/{pdcID}/transition [post]
func (h *pdcHandler) transitionPDC(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	pdcID := c.Param("pdcID")

	req := dto.TransitionRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for transitionPDC", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	tctx := domain.TransitionContext{
		ExpectedVersion: req.Version,
		DepositDate:     req.DepositDate,
		ClearedDate:     req.ClearedDate,
		BouncedDate:     req.BouncedDate,
		BounceReason:    req.BounceReason,
		ActorUserID:     actorUserID,
	}

	pdc, err := h.transition.Transition(c.Request.Context(), pdcID, domain.PDCStatus(req.TargetStatus), tctx)
	if err != nil {
		respondServiceError(c, logger, err, "transition cheque")
		return
	}

	c.JSON(http.StatusOK, dto.ToPDCResponse(pdc))
}

// registerReplacement godoc
// @Summary Register a replacement for a bounced cheque
// @Description Creates the replacement cheque and moves the original BOUNCED to REPLACED atomically
// @Tags pdcs
// @Accept  json
// @Produce  json
// @Param   pdcID path string true "Bounced cheque ID"
// @Param   replacement body dto.RegisterReplacementRequest true "Replacement cheque"
// @Success 201 {object} dto.PDCResponse "The replacement cheque"
// @Failure 404 {object} map[string]string "Cheque not found"
// @Failure 422 {object} map[string]string "Replacement validation failed"
// @Router /pdcs/{pdcID}/replacement [post]
func (h *pdcHandler) registerReplacement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	pdcID := c.Param("pdcID")

	req := dto.RegisterReplacementRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for registerReplacement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	replacement, err := h.registry.RegisterReplacement(c.Request.Context(), pdcID, req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "register replacement")
		return
	}

	c.JSON(http.StatusCreated, dto.ToPDCResponse(replacement))
}

// getTenantBounceStats godoc
// @Summary Get a tenant's bounce statistics
// @Description Returns how many of the tenant's cheques have bounced and when the last bounce happened
// @Tags tenants
// @Produce  json
// @Param   tenantRef path string true "Tenant reference"
// @Success 200 {object} dto.TenantBounceStatsResponse
// @Router /tenants/{tenantRef}/bounce-stats [get]
func (h *pdcHandler) getTenantBounceStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantRef := c.Param("tenantRef")

	stats, err := h.registry.GetTenantBounceStats(c.Request.Context(), tenantRef)
	if err != nil {
		respondServiceError(c, logger, err, "retrieve bounce stats")
		return
	}

	c.JSON(http.StatusOK, dto.ToTenantBounceStatsResponse(stats))
}

// registerPDCRoutes registers cheque and tenant routes on the v1 group.
func registerPDCRoutes(group *gin.RouterGroup, registry portssvc.PDCRegistrySvcFacade, transition portssvc.TransitionSvcFacade, mutationLimiter gin.HandlerFunc) {
	h := newPDCHandler(registry, transition)

	pdcs := group.Group("/pdcs")
	{
		pdcs.POST("", mutationLimiter, h.registerPDCs)
		pdcs.GET("", h.listPDCs)
		pdcs.GET("/:pdcID", h.getPDC)
		pdcs.POST("/:pdcID/transition", mutationLimiter, h.transitionPDC)
		pdcs.POST("/:pdcID/replacement", mutationLimiter, h.registerReplacement)
	}

	tenants := group.Group("/tenants")
	{
		tenants.GET("/:tenantRef/bounce-stats", h.getTenantBounceStats)
	}
}
