package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/rentably/pdc_engine/internal/middleware"
)

// schedulerHandler exposes the on-demand reminder batch run.
type schedulerHandler struct {
	scheduler portssvc.SchedulerSvcFacade
}

func newSchedulerHandler(scheduler portssvc.SchedulerSvcFacade) *schedulerHandler {
	return &schedulerHandler{scheduler: scheduler}
}

// runScheduler godoc
// @Summary Run the reminder batch
// @Description Promotes cheques entering the deposit horizon and sends due reminders for the given as-of instant
// @Tags scheduler
// @Accept  json
// @Produce  json
// @Param   run body dto.SchedulerRunRequest true "As-of instant"
// @Success 200 {object} dto.SchedulerRunSummary
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 500 {object} map[string]string "Run failed"
// @Router /scheduler/run [post]
func (h *schedulerHandler) runScheduler(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.SchedulerRunRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for runScheduler", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	summary, err := h.scheduler.Run(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, logger, err, "run scheduler")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// registerSchedulerRoutes registers the scheduler routes on the v1 group.
func registerSchedulerRoutes(group *gin.RouterGroup, scheduler portssvc.SchedulerSvcFacade) {
	h := newSchedulerHandler(scheduler)

	sched := group.Group("/scheduler")
	{
		sched.POST("/run", h.runScheduler)
	}
}
