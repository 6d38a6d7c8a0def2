// internal/app/features/records/handler.go
package records

import (
	"net/http"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	recordstore "github.com/dalemusser/communityhub/internal/app/store/records"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/gates"
	"github.com/dalemusser/communityhub/internal/app/system/metrics"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the generic list, search, show, create, update, delete,
// bulk delete and export endpoints of one resource kind. T is the stored
// document type; mutations require *T to implement models.Record.
type Handler[T any] struct {
	Kind    resource.Kind
	Store   *recordstore.Store[T]
	Metrics *metrics.Metrics
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Log     *zap.Logger

	// prepare lets a kind adjust a decoded record before it is validated.
	// existing is nil on create.
	prepare func(rec, existing *T)
	// extend adds kind-specific routes to the kind's router.
	extend func(r chi.Router)
}

func NewHandler[T any](db *mongo.Database, kind resource.Kind, m *metrics.Metrics, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler[T] {
	return &Handler[T]{
		Kind:    kind,
		Store:   recordstore.New[T](db, kind),
		Metrics: m,
		ErrLog:  errLog,
		Audit:   auditLog,
		Log:     logger.With(zap.String("kind", kind.Name)),
	}
}

// readGate lets any member of the current group read.
func (h *Handler[T]) readGate(w http.ResponseWriter, r *http.Request) gates.Result {
	return gates.RequireGroup(w, r)
}

// writeGate requires the kind's permission.
func (h *Handler[T]) writeGate(w http.ResponseWriter, r *http.Request) gates.Result {
	return gates.RequirePermission(w, r, h.Kind.Permission, "You do not have permission to change "+h.Kind.Plural+".")
}

func (h *Handler[T]) notFound(w http.ResponseWriter) {
	uierrors.NotFound(w, capitalize(h.Kind.Singular)+" not found.")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
