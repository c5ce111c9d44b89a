package store

import (
	"context"
	"time"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/shopspring/decimal"
)

// Tx is the set of operations a payment posting performs as one unit.
type Tx interface {
	// GetLoanBalance reads the loan and holds a write lock on it until the
	// transaction ends.
	GetLoanBalance(ctx context.Context, loanID string) (principal, balance decimal.Decimal, err error)
	ActiveInstitutionIDs(ctx context.Context) ([]int64, error)
	InsertPayment(ctx context.Context, payment *models.Payment) (int64, error)
	UpdateLoanBalance(ctx context.Context, loanID string, balance decimal.Decimal, percentagePaid string, payoffDate *time.Time, updatedAt time.Time) error
}

// Storage defines the interface for database operations.
type Storage interface {
	// WithTx runs fn inside a transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// CreateLoan inserts the loan and, when studentID is set, links it to that
	// student in the same transaction.
	CreateLoan(ctx context.Context, loan *models.Loan, studentID string) error
	GetLoan(ctx context.Context, id string) (*models.Loan, error)
	GetLoanDetails(ctx context.Context, id string) (*models.LoanDetails, error)
	GetPaymentsForLoan(ctx context.Context, loanID string) ([]*models.PaymentDetail, error)
	GetYearlyPaymentStats(ctx context.Context, loanID string) ([]models.YearlyPaymentStat, error)
	AttachStudyInfo(ctx context.Context, loanID string, info *models.StudyInfo, updatedAt time.Time) error

	CreateProvince(ctx context.Context, p *models.Province) error
	CreateEducationInstitution(ctx context.Context, ei *models.EducationInstitution) error
	CreateFinancialInstitution(ctx context.Context, fi *models.FinancialInstitution) error

	CreateStudent(ctx context.Context, s *models.Student, c *models.Communication) error
	FindStudentsByLastName(ctx context.Context, fragment string) ([]*models.StudentProfile, error)
	UpdateCommunication(ctx context.Context, studentID string, c *models.Communication) (*models.StudentContact, error)
	UpdateAddress(ctx context.Context, studentID, address string) (*models.Student, error)
	GetIncompleteRegistrations(ctx context.Context) ([]*models.IncompleteRegistration, error)

	QueryPaymentsByProvinceAndPeriod(ctx context.Context) ([]models.ProvinceRow, error)
	QueryPaymentsByInstitutionAndPeriod(ctx context.Context) ([]models.InstitutionRow, error)
	CountStudentsByProvince(ctx context.Context) ([]models.ProvinceStudentCount, error)

	Close() error
}
