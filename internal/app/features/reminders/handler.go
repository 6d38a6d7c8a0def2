// internal/app/features/reminders/handler.go
package reminders

import (
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler lets a treasurer send the current group's reminders now instead
// of waiting for the scheduled run.
type Handler struct {
	Service *Service
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(svc *Service, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, ErrLog: errLog, Audit: auditLog, Log: logger}
}

type runResponse struct {
	Message string `json:"message"`
	Report
}

// HandleRun serves POST /private/reminders/run. The permission is checked
// in Routes; the gate supplies the group.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireGroup(w, r)
	if !res.OK {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "send reminders")
	defer cancel()

	rep, err := h.Service.RunGroup(ctx, res.GroupID, time.Now().UTC())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "send reminders failed", err, "Unable to send reminders.")
		return
	}
	h.Audit.RemindersSent(ctx, r, rep.Payments, rep.Sent, rep.Failed)
	respond.OK(w, runResponse{
		Message: fmt.Sprintf("Sent %d reminder(s) for %d payment(s).", rep.Sent, rep.Payments),
		Report:  rep,
	})
}
