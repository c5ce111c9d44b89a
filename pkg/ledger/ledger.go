package ledger

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/studentLoan/pkg/events"
	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// Policy is the minimum-payment rule applied before a payment is accepted.
type Policy struct {
	MinimumPayment   decimal.Decimal
	MinimumInclusive bool // accept amount == MinimumPayment
}

// DefaultPolicy requires payments of at least 100.
func DefaultPolicy() Policy {
	return Policy{MinimumPayment: hundred, MinimumInclusive: true}
}

// Allows reports whether amount clears the floor. Non-positive amounts never do.
func (p Policy) Allows(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	if p.MinimumInclusive {
		return amount.GreaterThanOrEqual(p.MinimumPayment)
	}
	return amount.GreaterThan(p.MinimumPayment)
}

// Ledger handles the business logic for loans and payments.
type Ledger struct {
	storage   store.Storage
	publisher events.Publisher
	log       logrus.FieldLogger
	policy    Policy
	now       func() time.Time

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand // picks the disbursing institution
}

type Option func(*Ledger)

func WithPolicy(p Policy) Option {
	return func(l *Ledger) { l.policy = p }
}

func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithRandSource fixes the source used for institution selection.
func WithRandSource(src rand.Source) Option {
	return func(l *Ledger) { l.rnd = rand.New(src) }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, opts ...Option) *Ledger {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	l := &Ledger{
		storage:   s,
		publisher: events.Nop{},
		log:       discard,
		policy:    DefaultPolicy(),
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// today is the posting date: the current calendar day, at midnight UTC.
func (l *Ledger) today() time.Time {
	t := l.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// pickInstitution draws uniformly from the pool.
func (l *Ledger) pickInstitution(ids []int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ids[l.rnd.Intn(len(ids))]
}

// wholeCents reports whether v has no fraction of a cent.
func wholeCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

// PercentagePaid formats the share of principal repaid as a whole percentage,
// rounded down.
func PercentagePaid(principal, balance decimal.Decimal) string {
	if !principal.IsPositive() {
		return "0%"
	}
	pct := principal.Sub(balance).Mul(hundred).Div(principal).Floor()
	return fmt.Sprintf("%d%%", pct.IntPart())
}

// DisbursementRequest describes a new loan.
type DisbursementRequest struct {
	StudentID              string
	EnrollmentType         string
	Principal              decimal.Decimal
	DisbursementDate       time.Time // zero means today
	EducationInstitutionID *int64
}

// DisburseLoan records a new loan with its full principal outstanding.
func (l *Ledger) DisburseLoan(ctx context.Context, req DisbursementRequest) (*models.Loan, error) {
	if !req.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidPrincipal, req.Principal)
	}
	if !wholeCents(req.Principal) {
		return nil, fmt.Errorf("%w: principal %s", models.ErrAmountPrecision, req.Principal)
	}

	disbursed := req.DisbursementDate
	if disbursed.IsZero() {
		disbursed = l.today()
	}
	now := l.now().UTC()
	loan := &models.Loan{
		ID:                     uuid.New().String(),
		EnrollmentType:         req.EnrollmentType,
		Principal:              req.Principal,
		Balance:                req.Principal,
		PercentagePaid:         "0%",
		DisbursementDate:       disbursed,
		EducationInstitutionID: req.EducationInstitutionID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := l.storage.CreateLoan(ctx, loan, req.StudentID); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"loan_id":   loan.ID,
		"principal": loan.Principal.StringFixed(2),
	}).Info("Loan disbursed")
	return loan, nil
}

// PostPayment applies amount to the loan's balance. The payment row and the
// balance update commit together or not at all.
func (l *Ledger) PostPayment(ctx context.Context, loanID string, amount decimal.Decimal) (*models.PaymentResult, error) {
	today := l.today()
	var result models.PaymentResult

	err := l.storage.WithTx(ctx, func(tx store.Tx) error {
		principal, balance, err := tx.GetLoanBalance(ctx, loanID)
		if err != nil {
			return err
		}
		if balance.IsZero() {
			return fmt.Errorf("%w: %s", models.ErrLoanPaidOff, loanID)
		}
		if !wholeCents(amount) {
			return fmt.Errorf("%w: %s", models.ErrAmountPrecision, amount)
		}
		if !l.policy.Allows(amount) {
			return fmt.Errorf("%w: %s (minimum %s)", models.ErrAmountBelowMinimum, amount, l.policy.MinimumPayment)
		}
		if amount.GreaterThan(balance) {
			return fmt.Errorf("%w: %s > %s", models.ErrAmountExceedsBalance, amount, balance)
		}

		ids, err := tx.ActiveInstitutionIDs(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return models.ErrNoInstitutions
		}

		payment := &models.Payment{
			LoanID:        loanID,
			Amount:        amount,
			Date:          today,
			InstitutionID: l.pickInstitution(ids),
		}
		if _, err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		newBalance := balance.Sub(amount).Round(2)
		percentage := PercentagePaid(principal, newBalance)
		var payoff *time.Time
		if newBalance.IsZero() {
			payoff = &today
		}
		if err := tx.UpdateLoanBalance(ctx, loanID, newBalance, percentage, payoff, l.now().UTC()); err != nil {
			return err
		}

		result = models.PaymentResult{
			PaymentID:      payment.ID,
			LoanID:         loanID,
			PaymentAmount:  amount,
			PaymentDate:    today.Format(models.DateLayout),
			InstitutionID:  payment.InstitutionID,
			NewBalance:     newBalance,
			PercentagePaid: percentage,
			IsFullyPaid:    payoff != nil,
		}
		if payoff != nil {
			d := payoff.Format(models.DateLayout)
			result.PayoffDate = &d
		}
		return nil
	})
	if err != nil {
		l.log.WithError(err).WithField("loan_id", loanID).Warn("Payment rejected")
		return nil, err
	}

	log := l.log.WithFields(logrus.Fields{
		"loan_id":     loanID,
		"payment_id":  result.PaymentID,
		"amount":      amount.StringFixed(2),
		"new_balance": result.NewBalance.StringFixed(2),
	})
	log.Info("Payment posted")

	evt := events.PaymentPosted{
		PaymentID:      result.PaymentID,
		LoanID:         loanID,
		Amount:         amount,
		InstitutionID:  result.InstitutionID,
		NewBalance:     result.NewBalance,
		PercentagePaid: result.PercentagePaid,
		IsFullyPaid:    result.IsFullyPaid,
		OccurredAt:     l.now().UTC(),
	}
	if err := l.publisher.Publish(ctx, loanID, evt); err != nil {
		log.WithError(err).Error("Failed to publish payment event")
	}
	return &result, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	return l.storage.GetLoan(ctx, id)
}

// PaymentHistory lists a loan's payments, oldest first.
func (l *Ledger) PaymentHistory(ctx context.Context, loanID string) ([]*models.PaymentDetail, error) {
	payments, err := l.storage.GetPaymentsForLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: loan %s", models.ErrNoPayments, loanID)
	}
	return payments, nil
}

// YearlyStats summarises a loan's payments per calendar year.
func (l *Ledger) YearlyStats(ctx context.Context, loanID string) (*models.LoanYearlyStats, error) {
	details, err := l.storage.GetLoanDetails(ctx, loanID)
	if err != nil {
		return nil, err
	}
	stats, err := l.storage.GetYearlyPaymentStats(ctx, loanID)
	if err != nil {
		return nil, err
	}

	out := &models.LoanYearlyStats{
		LoanDetails:     *details,
		NumberOfYears:   len(stats),
		TotalAmountPaid: decimal.Zero,
		Statistics:      stats,
	}
	for _, s := range stats {
		out.TotalPayments += s.NumberOfPayments
		out.TotalAmountPaid = out.TotalAmountPaid.Add(s.TotalAmount)
	}
	return out, nil
}
