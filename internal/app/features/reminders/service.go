// internal/app/features/reminders/service.go
package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	groupstore "github.com/dalemusser/communityhub/internal/app/store/groups"
	"github.com/dalemusser/communityhub/internal/app/system/mailer"
	"github.com/dalemusser/communityhub/internal/app/system/metrics"
	"github.com/dalemusser/communityhub/internal/app/system/workers"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DefaultWindow is how far ahead a due date triggers a reminder.
const DefaultWindow = 72 * time.Hour

// Concurrency caps simultaneous SMTP sends.
const Concurrency = 4

// Service emails active members who have not yet paid into a published
// payment account due within Window.
type Service struct {
	payments *mongo.Collection
	members  *mongo.Collection
	groups   *groupstore.Store

	Sender   mailer.Sender
	Metrics  *metrics.Metrics
	Window   time.Duration
	BaseURL  string
	SiteName string
	Log      *zap.Logger
}

func NewService(db *mongo.Database, sender mailer.Sender, m *metrics.Metrics, window time.Duration, baseURL string, logger *zap.Logger) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Service{
		payments: db.Collection(resource.Payments.Collection),
		members:  db.Collection(resource.Members.Collection),
		groups:   groupstore.New(db),
		Sender:   sender,
		Metrics:  m,
		Window:   window,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		SiteName: "Community Hub",
		Log:      logger,
	}
}

// Report summarizes one reminder run.
type Report struct {
	Payments int `json:"payments"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

type reminder struct {
	to   string
	data mailer.ReminderEmailData
}

// RunAll sends reminders for every group.
func (s *Service) RunAll(ctx context.Context, now time.Time) (Report, error) {
	return s.run(ctx, now, bson.M{})
}

// RunGroup sends reminders for one group.
func (s *Service) RunGroup(ctx context.Context, groupID primitive.ObjectID, now time.Time) (Report, error) {
	return s.run(ctx, now, bson.M{"group_id": groupID})
}

func (s *Service) run(ctx context.Context, now time.Time, scope bson.M) (Report, error) {
	due, err := s.duePayments(ctx, now, scope)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Payments: len(due)}
	if len(due) == 0 {
		return rep, nil
	}

	var batch []reminder
	groupNames := map[primitive.ObjectID]string{}
	membersOf := map[primitive.ObjectID][]models.Member{}
	for _, p := range due {
		gid := p.GroupID
		if _, ok := groupNames[gid]; !ok {
			g, err := s.groups.GetByID(ctx, gid)
			if err != nil {
				s.Log.Warn("reminder: group lookup failed", zap.String("group_id", gid.Hex()), zap.Error(err))
				continue
			}
			groupNames[gid] = g.Name
			if membersOf[gid], err = s.activeMembers(ctx, gid); err != nil {
				return rep, err
			}
		}
		for _, m := range membersOf[gid] {
			if p.PaidBy(m.ID) {
				continue
			}
			batch = append(batch, reminder{to: m.Email, data: s.emailData(p, m, groupNames[gid])})
		}
	}

	errs := workers.Each(ctx, batch, Concurrency, func(ctx context.Context, r reminder) error {
		return s.Sender.Send(ctx, mailer.BuildReminderEmail(r.to, r.data))
	})
	rep.Failed = workers.Failed(errs)
	rep.Sent = len(errs) - rep.Failed
	for i, err := range errs {
		if err != nil {
			s.Metrics.Reminder("failed")
			s.Log.Warn("reminder not sent", zap.String("to", batch[i].to), zap.Error(err))
			continue
		}
		s.Metrics.Reminder("sent")
	}
	s.Log.Info("dues reminders finished",
		zap.Int("payments", rep.Payments), zap.Int("sent", rep.Sent), zap.Int("failed", rep.Failed))
	return rep, nil
}

func (s *Service) duePayments(ctx context.Context, now time.Time, scope bson.M) ([]models.Payment, error) {
	q := bson.M{
		"published": true,
		"due_date":  bson.M{"$gte": now, "$lte": now.Add(s.Window)},
	}
	for k, v := range scope {
		q[k] = v
	}
	cur, err := s.payments.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find due payments: %w", err)
	}
	defer cur.Close(ctx)
	var out []models.Payment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode due payments: %w", err)
	}
	return out, nil
}

func (s *Service) activeMembers(ctx context.Context, groupID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.members.Find(ctx, bson.M{
		"group_id": groupID,
		"status":   "active",
		"email":    bson.M{"$gt": ""},
	})
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	defer cur.Close(ctx)
	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return out, nil
}

func (s *Service) emailData(p models.Payment, m models.Member, groupName string) mailer.ReminderEmailData {
	d := mailer.ReminderEmailData{
		SiteName:   s.SiteName,
		MemberName: m.FullName,
		GroupName:  groupName,
		Title:      p.Title,
		Amount:     p.Amount.StringFixed(2),
	}
	if p.DueDate != nil {
		d.DueDate = p.DueDate.UTC().Format("Mon, 02 Jan 2006")
	}
	if s.BaseURL != "" {
		d.Link = s.BaseURL + resource.Payments.ItemPath(p.ID.Hex())
	}
	return d
}
