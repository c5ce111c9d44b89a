package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mcclellann/studentLoan/pkg/models"
)

// QueryPaymentsByProvinceAndPeriod groups payments by the province of the
// borrower's college, then by year and month.
func (s *sqlStore) QueryPaymentsByProvinceAndPeriod(ctx context.Context) ([]models.ProvinceRow, error) {
	d := s.dialect
	query := fmt.Sprintf(`
		SELECT pr.name, %s, %s, COUNT(DISTINCT s.id), %s
		FROM provinces pr
		JOIN education_institutions ei ON ei.province_id = pr.id
		JOIN loans l ON l.education_institution_id = ei.id
		JOIN students s ON s.loan_id = l.id
		JOIN payments pay ON pay.loan_id = l.id
		GROUP BY 1, 2, 3
		ORDER BY 1, 2 DESC, 3 DESC`, d.yearOf("pay.paid_on"), d.monthOf("pay.paid_on"), d.sumCents("pay.amount"))

	rows, err := s.db.QueryContext(ctx, s.q(query))
	if err != nil {
		return nil, models.StoreError("query payments by province", err)
	}
	defer rows.Close()

	result := []models.ProvinceRow{}
	for rows.Next() {
		var r models.ProvinceRow
		var cents int64
		if err := rows.Scan(&r.Province, &r.Year, &r.Month, &r.NumberOfStudents, &cents); err != nil {
			return nil, models.StoreError("scan province row", err)
		}
		r.TotalAmount = fromCents(cents)
		r.MonthName = time.Month(r.Month).String()
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate province rows", err)
	}
	return result, nil
}

// QueryPaymentsByInstitutionAndPeriod groups payments by disbursing
// institution, newest year and month first.
func (s *sqlStore) QueryPaymentsByInstitutionAndPeriod(ctx context.Context) ([]models.InstitutionRow, error) {
	d := s.dialect
	query := fmt.Sprintf(`
		SELECT f.name, f.code, %s, %s, COUNT(*), %s
		FROM payments pay
		JOIN financial_institutions f ON f.id = pay.financial_institution_id
		GROUP BY 1, 2, 3, 4
		ORDER BY 3 DESC, 4 DESC, 1`, d.yearOf("pay.paid_on"), d.monthOf("pay.paid_on"), d.sumCents("pay.amount"))

	rows, err := s.db.QueryContext(ctx, s.q(query))
	if err != nil {
		return nil, models.StoreError("query payments by institution", err)
	}
	defer rows.Close()

	result := []models.InstitutionRow{}
	for rows.Next() {
		var r models.InstitutionRow
		var cents int64
		if err := rows.Scan(&r.InstitutionName, &r.InstitutionCode, &r.Year, &r.MonthNumber, &r.Count, &cents); err != nil {
			return nil, models.StoreError("scan institution row", err)
		}
		r.Amount = fromCents(cents)
		r.MonthName = time.Month(r.MonthNumber).String()
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate institution rows", err)
	}
	return result, nil
}

func (s *sqlStore) CountStudentsByProvince(ctx context.Context) ([]models.ProvinceStudentCount, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT pr.name, COUNT(DISTINCT s.id)
		FROM provinces pr
		LEFT JOIN education_institutions ei ON ei.province_id = pr.id
		LEFT JOIN loans l ON l.education_institution_id = ei.id
		LEFT JOIN students s ON s.loan_id = l.id
		GROUP BY pr.name
		ORDER BY pr.name`))
	if err != nil {
		return nil, models.StoreError("count students by province", err)
	}
	defer rows.Close()

	counts := []models.ProvinceStudentCount{}
	for rows.Next() {
		var c models.ProvinceStudentCount
		if err := rows.Scan(&c.Province, &c.StudentCount); err != nil {
			return nil, models.StoreError("scan province count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("iterate province counts", err)
	}
	return counts, nil
}
