package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type Loan struct {
	ID                     string          `json:"id"`
	EnrollmentType         string          `json:"enrollment_type"`
	Principal              decimal.Decimal `json:"principal"`
	Balance                decimal.Decimal `json:"balance"`
	PercentagePaid         string          `json:"percentage_paid"`
	DisbursementDate       time.Time       `json:"disbursement_date"`
	PayoffDate             *time.Time      `json:"payoff_date,omitempty"` // Set once, when Balance reaches zero
	StudyInfoID            *int64          `json:"study_info_id,omitempty"`
	EducationInstitutionID *int64          `json:"education_institution_id,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// IsPaidOff reports whether the loan has reached its terminal state.
func (l *Loan) IsPaidOff() bool {
	return l.Balance.IsZero()
}

// Payment is an append-only record of funds applied to a loan.
type Payment struct {
	ID            int64           `json:"id"`
	LoanID        string          `json:"loan_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	InstitutionID int64           `json:"institution_id"`
}

// PaymentResult is returned by a successful posting.
type PaymentResult struct {
	PaymentID      int64           `json:"paymentId"`
	LoanID         string          `json:"loanId"`
	PaymentAmount  decimal.Decimal `json:"paymentAmount"`
	PaymentDate    string          `json:"paymentDate"`
	InstitutionID  int64           `json:"institutionId"`
	NewBalance     decimal.Decimal `json:"newBalance"`
	PercentagePaid string          `json:"percentagePaid"`
	PayoffDate     *string         `json:"payoffDate"`
	IsFullyPaid    bool            `json:"isFullyPaid"`
}

// PaymentDetail is a payment joined with its institution, loan and student.
type PaymentDetail struct {
	PaymentID       int64           `json:"paymentId"`
	LoanID          string          `json:"loanId"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"paymentDate"`
	InstitutionName string          `json:"finInstitution"`
	InstitutionCode string          `json:"finCode"`
	InstitutionType string          `json:"finType"`
	LoanAmount      decimal.Decimal `json:"loanAmount"`
	LoanBalance     decimal.Decimal `json:"loanBalance"`
	StudentName     string          `json:"studentName"`
}

type LoanDetails struct {
	LoanAmount       decimal.Decimal `json:"loanAmount"`
	LoanBalance      decimal.Decimal `json:"loanBalance"`
	DisbursementDate string          `json:"disbursementDate"`
	PercentagePaid   string          `json:"percentagePaid"`
	PayoffDate       *string         `json:"payoffDate"`
	StudentName      string          `json:"studentName"`
	CollegeName      string          `json:"collegeName"`
	ProgramOfStudy   string          `json:"programOfStudy"`
}

// YearlyPaymentStat summarises one calendar year of payments on a loan.
type YearlyPaymentStat struct {
	Year             int             `json:"year"`
	NumberOfPayments int             `json:"numberOfPayments"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	FirstPayment     string          `json:"firstPayment"`
	LastPayment      string          `json:"lastPayment"`
}

type LoanYearlyStats struct {
	LoanDetails     LoanDetails         `json:"loanDetails"`
	NumberOfYears   int                 `json:"numberOfYears"`
	TotalPayments   int                 `json:"totalPayments"`
	TotalAmountPaid decimal.Decimal     `json:"totalAmountPaid"`
	Statistics      []YearlyPaymentStat `json:"statistics"`
}

type FinancialInstitution struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

type Province struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type EducationInstitution struct {
	ID         int64  `json:"id"`
	Name       string `json:"collegeName"`
	City       string `json:"city"`
	ProvinceID int64  `json:"provinceId"`
}

type StudyInfo struct {
	ID             int64  `json:"id"`
	ProgramOfStudy string `json:"programOfStudy"`
	ProgramCode    string `json:"programCode"`
}
