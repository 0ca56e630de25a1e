package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/content-api/internal/dto"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
	"github.com/Payphone-Digital/content-api/pkg/scheduler"
)

type CronHandler struct {
	responder
	scheduler *scheduler.Scheduler
}

func NewCronHandler(s *scheduler.Scheduler, env string) *CronHandler {
	return &CronHandler{responder: responder{env: env}, scheduler: s}
}

func formatRun(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toCronStatus(s scheduler.JobStatus) dto.CronStatus {
	return dto.CronStatus{
		Name:        s.Name,
		Schedule:    s.Schedule,
		IsRunning:   s.IsRunning,
		IsBusy:      s.IsBusy,
		NextRun:     formatRun(s.NextRun),
		PreviousRun: formatRun(s.PreviousRun),
		LastResult:  s.LastResult,
		LastError:   s.LastError,
	}
}

func cronError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		return apperrors.ErrCronJobNotFound
	case errors.Is(err, scheduler.ErrJobBusy):
		return apperrors.WithMessage(apperrors.ErrConflict, "cron job is already running")
	default:
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
}

func (h *CronHandler) List(c *gin.Context) {
	jobs := h.scheduler.List()
	out := make([]dto.CronStatus, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toCronStatus(job))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CronHandler) Get(c *gin.Context) {
	h.respond(c, "GetCronJob", h.scheduler.Status)
}

func (h *CronHandler) Stop(c *gin.Context) {
	h.respond(c, "StopCronJob", h.scheduler.StopJob)
}

func (h *CronHandler) Start(c *gin.Context) {
	h.respond(c, "StartCronJob", h.scheduler.StartJob)
}

// Trigger runs a job now. A failed run still answers 200 with lastError set.
func (h *CronHandler) Trigger(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "TriggerCronJob")
	name := c.Param("name")

	status, err := h.scheduler.Trigger(ctx, name)
	if err != nil && (errors.Is(err, scheduler.ErrJobNotFound) || errors.Is(err, scheduler.ErrJobBusy)) {
		h.fail(c, ctx, cronError(err), "Failed to trigger cron job")
		return
	}

	logger.InfoWithContext(ctx, "Cron job triggered").
		String("job", name).
		Bool("success", err == nil).
		Log()
	c.JSON(http.StatusOK, toCronStatus(status))
}

func (h *CronHandler) respond(c *gin.Context, function string, op func(string) (scheduler.JobStatus, error)) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", function)
	name := c.Param("name")

	status, err := op(name)
	if err != nil {
		h.fail(c, ctx, cronError(err), "Cron job operation failed")
		return
	}
	c.JSON(http.StatusOK, toCronStatus(status))
}
