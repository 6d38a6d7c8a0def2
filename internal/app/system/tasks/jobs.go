// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/communityhub/internal/app/features/reminders"
	"go.uber.org/zap"
)

// DefaultReminderSpec sends reminders every morning at 08:00.
const DefaultReminderSpec = "0 8 * * *"

// DuesReminderJob creates the job that emails members about payments that
// fall due within the service's window.
func DuesReminderJob(svc *reminders.Service, spec string, logger *zap.Logger) Job {
	if spec == "" {
		spec = DefaultReminderSpec
	}
	return Job{
		Name:    "dues-reminders",
		Spec:    spec,
		Timeout: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			rep, err := svc.RunAll(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if rep.Sent > 0 || rep.Failed > 0 {
				logger.Info("dues reminders sent",
					zap.Int("sent", rep.Sent),
					zap.Int("failed", rep.Failed))
			}
			return nil
		},
	}
}
