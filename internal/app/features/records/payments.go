// internal/app/features/records/payments.go
package records

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/communityhub/internal/app/features/errors"
	recordstore "github.com/dalemusser/communityhub/internal/app/store/records"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/csvexport"
	"github.com/dalemusser/communityhub/internal/app/system/formutil"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/metrics"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/domain/record"
	"github.com/dalemusser/communityhub/internal/domain/resource"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Payments adds member payment recording and the per-account export to the
// generic payments handler.
type Payments struct {
	*Handler[models.Payment]
	Members *recordstore.Store[models.Member]
}

func NewPayments(db *mongo.Database, m *metrics.Metrics, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Payments {
	p := &Payments{
		Handler: NewHandler[models.Payment](db, resource.Payments, m, errLog, auditLog, logger),
		Members: recordstore.New[models.Member](db, resource.Members),
	}
	// Member payments only change through /pay.
	p.prepare = func(rec, existing *models.Payment) {
		if existing == nil {
			rec.Members = nil
			return
		}
		rec.Members = existing.Members
	}
	p.extend = func(r chi.Router) {
		r.Post("/{id}/pay", p.HandlePay)
		r.Get("/{id}/export.csv", p.ServeAccountExport)
	}
	return p
}

const maxPayAttempts = 3

type payInput struct {
	MemberID string          `json:"memberId" validate:"required,objectid" label:"Member"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0" label:"Amount"`
}

// HandlePay serves POST /private/payments/{id}/pay: it records one member
// payment on the account and refreshes the account total.
func (p *Payments) HandlePay(w http.ResponseWriter, r *http.Request) {
	res := p.writeGate(w, r)
	if !res.OK {
		return
	}
	id, ok := p.parseID(w, r)
	if !ok {
		return
	}
	var in payInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		p.ErrLog.LogBadRequest(w, r, "pay: bad body", err, formutil.Message(err))
		return
	}
	if v := inputval.Validate(in); v.HasErrors() {
		respond.Error(w, http.StatusBadRequest, v.First())
		return
	}
	memberID, _ := primitive.ObjectIDFromHex(in.MemberID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), p.Log, "record member payment")
	defer cancel()

	member, err := p.Members.Get(ctx, res.GroupID, memberID)
	if errors.Is(err, recordstore.ErrNotFound) {
		uierrors.NotFound(w, "Member not found.")
		return
	}
	if err != nil {
		p.ErrLog.LogServerError(w, r, "pay: load member failed", err, "A database error occurred.")
		return
	}
	entry := models.MemberPayment{
		FullName:   member.FullName,
		Email:      member.Email,
		AmountPaid: in.Amount,
		PaidAt:     time.Now().UTC().Truncate(time.Millisecond),
		MemberID:   member.ID,
	}

	// Retry when another payment lands between the read and the write.
	var acct models.Payment
	for attempt := 1; ; attempt++ {
		acct, err = p.Store.Get(ctx, res.GroupID, id)
		if err == nil {
			prev := acct.UpdatedAt
			acct.Members = append(acct.Members, entry)
			err = p.Store.ReplaceUnchanged(ctx, &acct, prev)
		}
		if !errors.Is(err, recordstore.ErrConflict) || attempt == maxPayAttempts {
			break
		}
	}
	if errors.Is(err, recordstore.ErrNotFound) {
		p.notFound(w)
		return
	}
	if errors.Is(err, recordstore.ErrConflict) {
		respond.Error(w, http.StatusConflict, "The payment changed while saving. Try again.")
		return
	}
	if err != nil {
		p.ErrLog.LogServerError(w, r, "pay: save failed", err, "Unable to save.")
		return
	}
	p.Log.Info("member payment recorded",
		zap.String("payment_id", id.Hex()),
		zap.String("member_id", member.ID.Hex()),
		zap.String("amount", in.Amount.String()))
	p.Audit.PaymentRecorded(ctx, r, id, member.ID, in.Amount.String())
	respond.OK(w, map[string]any{"message": "Payment recorded.", "payment": acct})
}

// ServeAccountExport serves GET /private/payments/{id}/export.csv: the
// account's fields followed by its member payments.
func (p *Payments) ServeAccountExport(w http.ResponseWriter, r *http.Request) {
	res := p.readGate(w, r)
	if !res.OK {
		return
	}
	id, ok := p.parseID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), p.Log, "export payment account")
	defer cancel()

	acct, err := p.Store.Get(ctx, res.GroupID, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		p.notFound(w)
		return
	}
	if err != nil {
		p.ErrLog.LogServerError(w, r, "account export: load failed", err, "A database error occurred.")
		return
	}
	row, err := record.FromValue(acct)
	if err != nil {
		p.ErrLog.LogServerError(w, r, "account export: convert failed", err, "")
		return
	}
	var buf bytes.Buffer
	if err := csvexport.WriteAccount(&buf, row); err != nil {
		p.ErrLog.LogServerError(w, r, "account export: render failed", err, "")
		return
	}
	writeCSVHeaders(w, csvexport.Filename("payment", time.Now()))
	_, _ = w.Write(buf.Bytes())
	p.Metrics.Export("payment")
}
