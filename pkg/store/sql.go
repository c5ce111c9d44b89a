package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// sqlStore implements Storage over database/sql for any supported dialect.
type sqlStore struct {
	db      *sql.DB
	dialect *dialect
	log     logrus.FieldLogger
}

func (s *sqlStore) q(query string) string {
	return s.dialect.rebind(query)
}

// WithTx runs fn inside a database transaction.
func (s *sqlStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StoreError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		s.log.WithError(err).Error("Transaction commit failed")
		return models.StoreError("commit transaction", err)
	}
	return nil
}

type sqlTx struct {
	tx    *sql.Tx
	store *sqlStore
}

func (t *sqlTx) GetLoanBalance(ctx context.Context, loanID string) (decimal.Decimal, decimal.Decimal, error) {
	var principal, balance decimal.Decimal
	query := `SELECT principal, balance FROM loans WHERE id = ?` + t.store.dialect.lockClause
	err := t.tx.QueryRowContext(ctx, t.store.q(query), loanID).Scan(&principal, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", models.ErrLoanNotFound, loanID)
		}
		return decimal.Zero, decimal.Zero, models.StoreError("get loan balance", err)
	}
	return principal, balance, nil
}

func (t *sqlTx) ActiveInstitutionIDs(ctx context.Context) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, t.store.q(`SELECT id FROM financial_institutions WHERE active = ? ORDER BY id`), true)
	if err != nil {
		return nil, models.StoreError("list financial institutions", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, models.StoreError("scan financial institution", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("list financial institutions", err)
	}
	return ids, nil
}

func (t *sqlTx) InsertPayment(ctx context.Context, p *models.Payment) (int64, error) {
	err := t.tx.QueryRowContext(ctx, t.store.q(
		`INSERT INTO payments (loan_id, amount, paid_on, financial_institution_id)
		VALUES (?, ?, ?, ?) RETURNING id`),
		p.LoanID, p.Amount, p.Date.Format(models.DateLayout), p.InstitutionID,
	).Scan(&p.ID)
	if err != nil {
		return 0, models.StoreError("insert payment", err)
	}
	return p.ID, nil
}

func (t *sqlTx) UpdateLoanBalance(ctx context.Context, loanID string, balance decimal.Decimal, percentagePaid string, payoffDate *time.Time, updatedAt time.Time) error {
	result, err := t.tx.ExecContext(ctx, t.store.q(
		`UPDATE loans SET balance = ?, percentage_paid = ?, payoff_date = ?, updated_at = ? WHERE id = ?`),
		balance, percentagePaid, nullableDate(payoffDate), updatedAt, loanID,
	)
	if err != nil {
		return models.StoreError("update loan balance", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return models.StoreError("update loan balance", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrLoanNotFound, loanID)
	}
	return nil
}

// CreateLoan inserts a new loan and optionally links it to a student.
func (s *sqlStore) CreateLoan(ctx context.Context, loan *models.Loan, studentID string) error {
	return s.WithTx(ctx, func(t Tx) error {
		tx := t.(*sqlTx).tx
		_, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO loans (id, enrollment_type, principal, balance, percentage_paid, disbursement_date, payoff_date, study_info_id, education_institution_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			loan.ID, loan.EnrollmentType, loan.Principal, loan.Balance, loan.PercentagePaid,
			loan.DisbursementDate.Format(models.DateLayout), nullableDate(loan.PayoffDate),
			loan.StudyInfoID, loan.EducationInstitutionID, loan.CreatedAt, loan.UpdatedAt,
		)
		if err != nil {
			return models.StoreError("create loan", err)
		}
		if studentID == "" {
			return nil
		}

		result, err := tx.ExecContext(ctx, s.q(`UPDATE students SET loan_id = ? WHERE id = ?`), loan.ID, studentID)
		if err != nil {
			return models.StoreError("link student loan", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return models.StoreError("link student loan", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", models.ErrStudentNotFound, studentID)
		}
		return nil
	})
}

// GetLoan retrieves a loan by its ID.
func (s *sqlStore) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	d := s.dialect
	query := fmt.Sprintf(
		`SELECT id, enrollment_type, principal, balance, percentage_paid, %s, %s, study_info_id, education_institution_id, created_at, updated_at
		FROM loans WHERE id = ?`, d.dateText("disbursement_date"), d.dateText("payoff_date"))

	var loan models.Loan
	var disbursed string
	var payoff sql.NullString
	var studyInfoID, institutionID sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.q(query), id).Scan(
		&loan.ID, &loan.EnrollmentType, &loan.Principal, &loan.Balance, &loan.PercentagePaid,
		&disbursed, &payoff, &studyInfoID, &institutionID, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrLoanNotFound, id)
		}
		return nil, models.StoreError("get loan", err)
	}
	if loan.DisbursementDate, err = time.Parse(models.DateLayout, disbursed); err != nil {
		return nil, models.StoreError("parse disbursement date", err)
	}
	if loan.PayoffDate, err = parseNullableDate(payoff); err != nil {
		return nil, models.StoreError("parse payoff date", err)
	}
	if studyInfoID.Valid {
		loan.StudyInfoID = &studyInfoID.Int64
	}
	if institutionID.Valid {
		loan.EducationInstitutionID = &institutionID.Int64
	}
	return &loan, nil
}

// GetLoanDetails returns the loan joined with its student, college and program.
func (s *sqlStore) GetLoanDetails(ctx context.Context, id string) (*models.LoanDetails, error) {
	d := s.dialect
	query := fmt.Sprintf(`
		SELECT l.principal, l.balance, %s, l.percentage_paid, %s,
			COALESCE(s.first_name || ' ' || s.last_name, ''),
			COALESCE(ei.name, ''),
			COALESCE(si.program_of_study, '')
		FROM loans l
		LEFT JOIN students s ON s.loan_id = l.id
		LEFT JOIN study_info si ON si.id = l.study_info_id
		LEFT JOIN education_institutions ei ON ei.id = l.education_institution_id
		WHERE l.id = ?`, d.dateText("l.disbursement_date"), d.dateText("l.payoff_date"))

	var details models.LoanDetails
	var payoff sql.NullString
	err := s.db.QueryRowContext(ctx, s.q(query), id).Scan(
		&details.LoanAmount, &details.LoanBalance, &details.DisbursementDate, &details.PercentagePaid, &payoff,
		&details.StudentName, &details.CollegeName, &details.ProgramOfStudy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrLoanNotFound, id)
		}
		return nil, models.StoreError("get loan details", err)
	}
	if payoff.Valid {
		details.PayoffDate = &payoff.String
	}
	return &details, nil
}

// GetPaymentsForLoan retrieves all payments for a loan ordered by pay date.
func (s *sqlStore) GetPaymentsForLoan(ctx context.Context, loanID string) ([]*models.PaymentDetail, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.loan_id, p.amount, %s, f.name, f.code, f.type, l.principal, l.balance,
			COALESCE(s.first_name || ' ' || s.last_name, '')
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		JOIN financial_institutions f ON f.id = p.financial_institution_id
		LEFT JOIN students s ON s.loan_id = l.id
		WHERE p.loan_id = ?
		ORDER BY p.paid_on, p.id`, s.dialect.dateText("p.paid_on"))

	rows, err := s.db.QueryContext(ctx, s.q(query), loanID)
	if err != nil {
		return nil, models.StoreError(fmt.Sprintf("get payments for loan %s", loanID), err)
	}
	defer rows.Close()

	var payments []*models.PaymentDetail
	for rows.Next() {
		var p models.PaymentDetail
		if err := rows.Scan(&p.PaymentID, &p.LoanID, &p.Amount, &p.PaymentDate, &p.InstitutionName, &p.InstitutionCode,
			&p.InstitutionType, &p.LoanAmount, &p.LoanBalance, &p.StudentName); err != nil {
			return nil, models.StoreError("scan payment row", err)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate payment rows", err)
	}
	return payments, nil
}

// GetYearlyPaymentStats groups a loan's payments by calendar year, newest first.
func (s *sqlStore) GetYearlyPaymentStats(ctx context.Context, loanID string) ([]models.YearlyPaymentStat, error) {
	d := s.dialect
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*), %s, MIN(%s), MAX(%s)
		FROM payments
		WHERE loan_id = ?
		GROUP BY 1
		ORDER BY 1 DESC`, d.yearOf("paid_on"), d.sumCents("amount"), d.dateText("paid_on"), d.dateText("paid_on"))

	rows, err := s.db.QueryContext(ctx, s.q(query), loanID)
	if err != nil {
		return nil, models.StoreError("get yearly payment stats", err)
	}
	defer rows.Close()

	stats := []models.YearlyPaymentStat{}
	for rows.Next() {
		var st models.YearlyPaymentStat
		var cents int64
		if err := rows.Scan(&st.Year, &st.NumberOfPayments, &cents, &st.FirstPayment, &st.LastPayment); err != nil {
			return nil, models.StoreError("scan yearly stat", err)
		}
		st.TotalAmount = fromCents(cents)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate yearly stats", err)
	}
	return stats, nil
}

// AttachStudyInfo creates the study info record and links it to the loan.
// A loan carries at most one study info.
func (s *sqlStore) AttachStudyInfo(ctx context.Context, loanID string, info *models.StudyInfo, updatedAt time.Time) error {
	return s.WithTx(ctx, func(t Tx) error {
		tx := t.(*sqlTx).tx
		var existing sql.NullInt64
		err := tx.QueryRowContext(ctx, s.q(`SELECT study_info_id FROM loans WHERE id = ?`+s.dialect.lockClause), loanID).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", models.ErrLoanNotFound, loanID)
		}
		if err != nil {
			return models.StoreError("get loan study info", err)
		}
		if existing.Valid {
			return fmt.Errorf("%w: %s", models.ErrStudyInfoExists, loanID)
		}

		if err := tx.QueryRowContext(ctx, s.q(`INSERT INTO study_info (program_of_study, program_code) VALUES (?, ?) RETURNING id`),
			info.ProgramOfStudy, info.ProgramCode).Scan(&info.ID); err != nil {
			return models.StoreError("insert study info", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE loans SET study_info_id = ?, updated_at = ? WHERE id = ?`),
			info.ID, updatedAt, loanID); err != nil {
			return models.StoreError("link study info", err)
		}
		return nil
	})
}

func (s *sqlStore) CreateProvince(ctx context.Context, p *models.Province) error {
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO provinces (name) VALUES (?) RETURNING id`), p.Name).Scan(&p.ID)
	if err != nil {
		return models.StoreError("create province", err)
	}
	return nil
}

func (s *sqlStore) CreateEducationInstitution(ctx context.Context, ei *models.EducationInstitution) error {
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO education_institutions (name, city, province_id) VALUES (?, ?, ?) RETURNING id`),
		ei.Name, ei.City, ei.ProvinceID).Scan(&ei.ID)
	if err != nil {
		return models.StoreError("create education institution", err)
	}
	return nil
}

func (s *sqlStore) CreateFinancialInstitution(ctx context.Context, fi *models.FinancialInstitution) error {
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO financial_institutions (name, code, type, active) VALUES (?, ?, ?, ?) RETURNING id`),
		fi.Name, fi.Code, fi.Type, fi.Active).Scan(&fi.ID)
	if err != nil {
		return models.StoreError("create financial institution", err)
	}
	return nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(models.DateLayout)
}

func parseNullableDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
