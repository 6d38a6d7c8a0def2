// internal/app/features/records/kinds.go
package records

import (
	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/metrics"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MountAll registers every resource kind on the /private router.
func MountAll(r chi.Router, db *mongo.Database, m *metrics.Metrics, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) {
	NewHandler[models.Announcement](db, resource.Announcements, m, errLog, auditLog, logger).Mount(r)
	NewHandler[models.Constitution](db, resource.Constitutions, m, errLog, auditLog, logger).Mount(r)
	NewHandler[models.Minutes](db, resource.Minutes, m, errLog, auditLog, logger).Mount(r)
	NewPayments(db, m, errLog, auditLog, logger).Mount(r)
	NewHandler[models.Expense](db, resource.Expenses, m, errLog, auditLog, logger).Mount(r)
	NewHandler[models.Member](db, resource.Members, m, errLog, auditLog, logger).Mount(r)
	NewHandler[models.User](db, resource.Users, m, errLog, auditLog, logger).Mount(r)
}
