package report

import (
	"context"
	"errors"
	"testing"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func provinceRow(province string, year, month, students int, amount string) models.ProvinceRow {
	return models.ProvinceRow{
		Province:         province,
		Year:             year,
		Month:            month,
		MonthName:        monthName(month),
		NumberOfStudents: students,
		TotalAmount:      d(amount),
	}
}

func monthName(m int) string {
	return [...]string{"", "January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}[m]
}

func TestAggregateByProvince_Ordering(t *testing.T) {
	rows := []models.ProvinceRow{
		provinceRow("Quebec", 2023, 5, 1, "50"),
		provinceRow("Ontario", 2023, 1, 2, "100.10"),
		provinceRow("Ontario", 2024, 1, 1, "300"),
		provinceRow("Ontario", 2024, 4, 1, "200.20"),
		provinceRow("Ontario", 2024, 2, 3, "120"),
		provinceRow("Alberta", 2022, 12, 1, "10"),
	}

	got := AggregateByProvince(rows)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Alberta", "Ontario", "Quebec"},
		[]string{got[0].Province, got[1].Province, got[2].Province})

	ontario := got[1]
	require.Len(t, ontario.YearlyBreakdown, 2)
	assert.Equal(t, 2024, ontario.YearlyBreakdown[0].Year)
	assert.Equal(t, 2023, ontario.YearlyBreakdown[1].Year)

	var months []string
	for _, m := range ontario.YearlyBreakdown[0].MonthlyBreakdown {
		months = append(months, m.Month)
	}
	// Lexicographic, not calendar order.
	assert.Equal(t, []string{"April", "February", "January"}, months)
}

func TestAggregateByProvince_Rollups(t *testing.T) {
	rows := []models.ProvinceRow{
		provinceRow("Ontario", 2024, 1, 1, "0.10"),
		provinceRow("Ontario", 2024, 2, 1, "0.20"),
		provinceRow("Ontario", 2023, 7, 4, "1234.56"),
		provinceRow("Manitoba", 2024, 3, 2, "99.99"),
	}

	for _, p := range AggregateByProvince(rows) {
		var provinceSum float64
		for _, y := range p.YearlyBreakdown {
			var yearSum float64
			for _, m := range y.MonthlyBreakdown {
				yearSum += m.TotalAmount
			}
			assert.InDelta(t, y.TotalAmount, yearSum, 1e-9, "%s %d", p.Province, y.Year)
			provinceSum += y.TotalAmount
		}
		assert.InDelta(t, p.TotalAmount, provinceSum, 1e-9, p.Province)
	}

	got := AggregateByProvince(rows)
	assert.Equal(t, 0.3, got[1].YearlyBreakdown[0].TotalAmount)
	assert.Equal(t, 1234.86, got[1].TotalAmount)
}

func TestAggregateByProvince_Empty(t *testing.T) {
	got := AggregateByProvince(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func institutionRow(name string, year, month, count int, amount string) models.InstitutionRow {
	return models.InstitutionRow{
		InstitutionName: name,
		InstitutionCode: name[:3],
		Year:            year,
		MonthName:       monthName(month),
		MonthNumber:     month,
		Count:           count,
		Amount:          d(amount),
	}
}

func TestAggregateByInstitution(t *testing.T) {
	// Source order: year descending, month descending.
	rows := []models.InstitutionRow{
		institutionRow("Desjardins", 2024, 3, 1, "100"),
		institutionRow("Royal Bank", 2024, 2, 2, "400.005"),
		institutionRow("Desjardins", 2024, 1, 1, "50"),
		institutionRow("Royal Bank", 2023, 11, 1, "100"),
		institutionRow("Desjardins", 2023, 12, 3, "300"),
		institutionRow("Scotia", 2023, 10, 1, "500.005"),
	}

	got := AggregateByInstitution(rows)
	require.Len(t, got, 3)

	assert.Equal(t, "Royal Bank", got[0].InstitutionName)
	assert.Equal(t, 500.01, got[0].TotalAmount)
	assert.Equal(t, 3, got[0].TotalPayments)
	assert.Equal(t, "Scotia", got[1].InstitutionName)
	assert.Equal(t, "Desjardins", got[2].InstitutionName)
	assert.Equal(t, "Des", got[2].InstitutionCode)

	des := got[2]
	require.Len(t, des.YearlyStats, 2)
	assert.Equal(t, 2024, des.YearlyStats[0].Year)
	assert.Equal(t, 2, des.YearlyStats[0].Count)
	assert.Equal(t, 150.0, des.YearlyStats[0].Amount)
	assert.Equal(t, []int{3, 1}, []int{des.YearlyStats[0].MonthlyStats[0].MonthNumber, des.YearlyStats[0].MonthlyStats[1].MonthNumber})
	assert.Equal(t, "March", des.YearlyStats[0].MonthlyStats[0].Month)
}

func TestAggregateByInstitution_KeepsInputOrder(t *testing.T) {
	// Out-of-order input is not re-sorted.
	rows := []models.InstitutionRow{
		institutionRow("Royal Bank", 2022, 1, 1, "10"),
		institutionRow("Royal Bank", 2024, 6, 1, "10"),
		institutionRow("Royal Bank", 2024, 2, 1, "10"),
		institutionRow("Royal Bank", 2024, 9, 1, "10"),
	}
	got := AggregateByInstitution(rows)
	require.Len(t, got, 1)
	stats := got[0].YearlyStats
	require.Len(t, stats, 2)
	assert.Equal(t, 2022, stats[0].Year)
	assert.Equal(t, 2024, stats[1].Year)

	var months []int
	for _, m := range stats[1].MonthlyStats {
		months = append(months, m.MonthNumber)
	}
	assert.Equal(t, []int{6, 2, 9}, months)
}

func TestAggregateByInstitution_TiesKeepFirstSeen(t *testing.T) {
	rows := []models.InstitutionRow{
		institutionRow("Scotia", 2024, 1, 1, "100"),
		institutionRow("Royal Bank", 2024, 1, 1, "100"),
	}
	got := AggregateByInstitution(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "Scotia", got[0].InstitutionName)
}

func TestAggregateByInstitution_Empty(t *testing.T) {
	got := AggregateByInstitution([]models.InstitutionRow{})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

type stubStorage struct {
	store.Storage
	provinces    []models.ProvinceRow
	institutions []models.InstitutionRow
	err          error
}

func (s *stubStorage) QueryPaymentsByProvinceAndPeriod(context.Context) ([]models.ProvinceRow, error) {
	return s.provinces, s.err
}

func (s *stubStorage) QueryPaymentsByInstitutionAndPeriod(context.Context) ([]models.InstitutionRow, error) {
	return s.institutions, s.err
}

func (s *stubStorage) CountStudentsByProvince(context.Context) ([]models.ProvinceStudentCount, error) {
	return []models.ProvinceStudentCount{{Province: "Ontario", StudentCount: 2}}, s.err
}

func TestReporter(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := &stubStorage{
		provinces:    []models.ProvinceRow{provinceRow("Ontario", 2024, 1, 1, "100")},
		institutions: []models.InstitutionRow{institutionRow("Royal Bank", 2024, 1, 1, "100")},
	}
	r := NewReporter(s, log)
	ctx := context.Background()

	provinces, err := r.PaymentsByProvince(ctx)
	require.NoError(t, err)
	assert.Len(t, provinces, 1)

	institutions, err := r.PaymentsByInstitution(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, institutions[0].TotalAmount)

	counts, err := r.ProvinceStudentCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[0].StudentCount)
}

func TestReporter_StoreFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := &stubStorage{err: models.StoreError("query", errors.New("connection reset"))}
	r := NewReporter(s, log)

	_, err := r.PaymentsByProvince(context.Background())
	assert.ErrorIs(t, err, models.ErrStore)
	_, err = r.PaymentsByInstitution(context.Background())
	assert.ErrorIs(t, err, models.ErrStore)
}
