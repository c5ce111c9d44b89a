package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/shopspring/decimal"
)

// CreateStudent inserts the communication record and the student together.
func (s *sqlStore) CreateStudent(ctx context.Context, st *models.Student, c *models.Communication) error {
	return s.WithTx(ctx, func(t Tx) error {
		tx := t.(*sqlTx).tx
		if err := tx.QueryRowContext(ctx, s.q(`INSERT INTO communications (phone_number, email, preference) VALUES (?, ?, ?) RETURNING id`),
			c.PhoneNumber, c.Email, string(c.Preference)).Scan(&c.ID); err != nil {
			return models.StoreError("create communication", err)
		}
		st.CommunicationID = c.ID
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO students (id, first_name, last_name, home_address, communication_id, loan_id) VALUES (?, ?, ?, ?, ?, ?)`),
			st.ID, st.FirstName, st.LastName, st.HomeAddress, st.CommunicationID, st.LoanID); err != nil {
			return models.StoreError("create student", err)
		}
		return nil
	})
}

// FindStudentsByLastName returns every student whose last name contains fragment.
func (s *sqlStore) FindStudentsByLastName(ctx context.Context, fragment string) ([]*models.StudentProfile, error) {
	query := fmt.Sprintf(`
		SELECT s.id, s.first_name, s.last_name, s.home_address,
			c.phone_number, c.email, c.preference,
			l.enrollment_type, l.principal, %s, l.balance, l.percentage_paid,
			si.program_of_study, si.program_code,
			ei.name, ei.city, p.name
		FROM students s
		LEFT JOIN communications c ON c.id = s.communication_id
		LEFT JOIN loans l ON l.id = s.loan_id
		LEFT JOIN study_info si ON si.id = l.study_info_id
		LEFT JOIN education_institutions ei ON ei.id = l.education_institution_id
		LEFT JOIN provinces p ON p.id = ei.province_id
		WHERE s.last_name %s ?
		ORDER BY s.last_name, s.first_name`, s.dialect.dateText("l.disbursement_date"), s.dialect.like)

	rows, err := s.db.QueryContext(ctx, s.q(query), "%"+fragment+"%")
	if err != nil {
		return nil, models.StoreError("find students by last name", err)
	}
	defer rows.Close()

	profiles := []*models.StudentProfile{}
	for rows.Next() {
		var p models.StudentProfile
		var principal, balance decimal.NullDecimal
		if err := rows.Scan(&p.StudentID, &p.FirstName, &p.LastName, &p.HomeAddress,
			&p.PhoneNumber, &p.Email, &p.CommunicationPreference,
			&p.EnrollmentType, &principal, &p.DisbursementDate, &balance, &p.PercentagePaid,
			&p.ProgramOfStudy, &p.ProgramCode,
			&p.CollegeName, &p.CollegeCity, &p.Province); err != nil {
			return nil, models.StoreError("scan student profile", err)
		}
		if principal.Valid {
			p.LoanAmount = &principal.Decimal
		}
		if balance.Valid {
			p.LoanBalance = &balance.Decimal
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate student profiles", err)
	}
	return profiles, nil
}

// UpdateCommunication replaces the student's contact details.
func (s *sqlStore) UpdateCommunication(ctx context.Context, studentID string, c *models.Communication) (*models.StudentContact, error) {
	var contact models.StudentContact
	err := s.WithTx(ctx, func(t Tx) error {
		tx := t.(*sqlTx).tx
		var communicationID int64
		err := tx.QueryRowContext(ctx, s.q(`SELECT communication_id FROM students WHERE id = ?`), studentID).Scan(&communicationID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", models.ErrStudentNotFound, studentID)
		}
		if err != nil {
			return models.StoreError("get student communication", err)
		}

		if _, err := tx.ExecContext(ctx, s.q(`UPDATE communications SET phone_number = ?, email = ?, preference = ? WHERE id = ?`),
			c.PhoneNumber, c.Email, string(c.Preference), communicationID); err != nil {
			return models.StoreError("update communication", err)
		}
		c.ID = communicationID

		var preference string
		if err := tx.QueryRowContext(ctx, s.q(`
			SELECT s.id, s.first_name, s.last_name, c.phone_number, c.email, c.preference
			FROM students s
			JOIN communications c ON c.id = s.communication_id
			WHERE s.id = ?`), studentID).Scan(
			&contact.StudentID, &contact.FirstName, &contact.LastName, &contact.PhoneNumber, &contact.Email, &preference); err != nil {
			return models.StoreError("read updated communication", err)
		}
		contact.Preference = models.Preference(preference)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *sqlStore) UpdateAddress(ctx context.Context, studentID, address string) (*models.Student, error) {
	var st models.Student
	err := s.WithTx(ctx, func(t Tx) error {
		tx := t.(*sqlTx).tx
		result, err := tx.ExecContext(ctx, s.q(`UPDATE students SET home_address = ? WHERE id = ?`), address, studentID)
		if err != nil {
			return models.StoreError("update address", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return models.StoreError("update address", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", models.ErrStudentNotFound, studentID)
		}

		var loanID sql.NullString
		if err := tx.QueryRowContext(ctx, s.q(`SELECT id, first_name, last_name, home_address, communication_id, loan_id FROM students WHERE id = ?`), studentID).
			Scan(&st.ID, &st.FirstName, &st.LastName, &st.HomeAddress, &st.CommunicationID, &loanID); err != nil {
			return models.StoreError("read updated student", err)
		}
		if loanID.Valid {
			st.LoanID = &loanID.String
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetIncompleteRegistrations lists students missing a loan, study info or
// education institution. Requirement labels are filled in by the caller.
func (s *sqlStore) GetIncompleteRegistrations(ctx context.Context) ([]*models.IncompleteRegistration, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT s.id, s.first_name, s.last_name, s.home_address, c.phone_number, c.email, c.preference,
			s.loan_id IS NOT NULL, l.study_info_id IS NOT NULL, l.education_institution_id IS NOT NULL
		FROM students s
		JOIN communications c ON c.id = s.communication_id
		LEFT JOIN loans l ON l.id = s.loan_id
		WHERE s.loan_id IS NULL
			OR l.study_info_id IS NULL
			OR l.education_institution_id IS NULL
		ORDER BY s.last_name, s.first_name`))
	if err != nil {
		return nil, models.StoreError("get incomplete registrations", err)
	}
	defer rows.Close()

	var regs []*models.IncompleteRegistration
	for rows.Next() {
		var r models.IncompleteRegistration
		var preference string
		if err := rows.Scan(&r.StudentID, &r.FirstName, &r.LastName, &r.HomeAddress, &r.PhoneNumber, &r.Email, &preference,
			&r.HasLoan, &r.HasStudyInfo, &r.HasInstitution); err != nil {
			return nil, models.StoreError("scan incomplete registration", err)
		}
		r.Preference = models.Preference(preference)
		regs = append(regs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate incomplete registrations", err)
	}
	return regs, nil
}
