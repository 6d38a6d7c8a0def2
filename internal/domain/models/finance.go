// internal/domain/models/finance.go
package models

import (
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Payment types accepted on a payment account.
var PaymentTypes = []string{"dues", "levy", "donation", "fine"}

// Expense categories.
var ExpenseCategories = []string{"operational", "event", "maintenance", "welfare", "other"}

// Payment is a dues/levy account members pay into. Members holds one entry
// per recorded member payment; TotalAmountPaid is their sum.
type Payment struct {
	Title           string          `bson:"title" json:"title" validate:"required,max=200"`
	TitleCI         string          `bson:"title_ci" json:"-"`
	Description     string          `bson:"description" json:"description"`
	Type            string          `bson:"type" json:"type" validate:"required,oneof=dues levy donation fine"`
	Amount          decimal.Decimal `bson:"amount" json:"amount" validate:"gt=0"`
	DueDate         *time.Time      `bson:"due_date,omitempty" json:"dueDate"`
	Published       bool            `bson:"published" json:"published"`
	TotalAmountPaid decimal.Decimal `bson:"total_amount_paid" json:"totalAmountPaid"`
	Members         []MemberPayment `bson:"members" json:"members"`

	Meta `bson:",inline"`
}

// MemberPayment is one member's contribution to a payment account.
type MemberPayment struct {
	FullName   string             `bson:"full_name" json:"fullName"`
	Email      string             `bson:"email" json:"email"`
	AmountPaid decimal.Decimal    `bson:"amount_paid" json:"amountPaid"`
	PaidAt     time.Time          `bson:"paid_at" json:"paidAt"`
	MemberID   primitive.ObjectID `bson:"member_id" json:"memberId"`
}

func (p *Payment) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.TitleCI = text.Fold(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	if p.Members == nil {
		p.Members = []MemberPayment{}
	}
	p.TotalAmountPaid = p.SumPaid()
}

func (p *Payment) Label() string { return p.Title }

// SumPaid totals the member payments.
func (p *Payment) SumPaid() decimal.Decimal {
	total := decimal.Zero
	for _, m := range p.Members {
		total = total.Add(m.AmountPaid)
	}
	return total
}

// PaidBy reports whether the member has any recorded payment on the account.
func (p *Payment) PaidBy(memberID primitive.ObjectID) bool {
	for _, m := range p.Members {
		if m.MemberID == memberID {
			return true
		}
	}
	return false
}

// Expense is money spent by the group.
type Expense struct {
	Title       string          `bson:"title" json:"title" validate:"required,max=200"`
	TitleCI     string          `bson:"title_ci" json:"-"`
	Description string          `bson:"description" json:"description"`
	Category    string          `bson:"category" json:"category" validate:"required,oneof=operational event maintenance welfare other"`
	Amount      decimal.Decimal `bson:"amount" json:"amount" validate:"gt=0"`
	ExpenseDate time.Time       `bson:"expense_date" json:"expenseDate" validate:"required"`

	Meta `bson:",inline"`
}

func (e *Expense) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.TitleCI = text.Fold(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
}

func (e *Expense) Label() string { return e.Title }
