// Package report folds grouped payment rows into hierarchical reports.
package report

import (
	"sort"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/shopspring/decimal"
)

type provinceYear struct {
	year   int
	total  decimal.Decimal
	months []models.ProvinceMonth
}

type provinceAcc struct {
	name  string
	years map[int]*provinceYear
}

// AggregateByProvince folds rows grouped by (province, year, month) into one
// report per province. Provinces are ascending by name, years descending and
// months ascending by month name (so April sorts before January).
func AggregateByProvince(rows []models.ProvinceRow) []models.ProvinceReport {
	byProvince := make(map[string]*provinceAcc)
	for _, r := range rows {
		p, ok := byProvince[r.Province]
		if !ok {
			p = &provinceAcc{name: r.Province, years: make(map[int]*provinceYear)}
			byProvince[r.Province] = p
		}
		y, ok := p.years[r.Year]
		if !ok {
			y = &provinceYear{year: r.Year, total: decimal.Zero}
			p.years[r.Year] = y
		}
		y.total = y.total.Add(r.TotalAmount)
		y.months = append(y.months, models.ProvinceMonth{
			Month:            r.MonthName,
			NumberOfStudents: r.NumberOfStudents,
			TotalAmount:      r.TotalAmount.InexactFloat64(),
		})
	}

	names := make([]string, 0, len(byProvince))
	for name := range byProvince {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]models.ProvinceReport, 0, len(names))
	for _, name := range names {
		p := byProvince[name]

		years := make([]int, 0, len(p.years))
		for year := range p.years {
			years = append(years, year)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(years)))

		total := decimal.Zero
		breakdown := make([]models.ProvinceYear, 0, len(years))
		for _, year := range years {
			y := p.years[year]
			sort.SliceStable(y.months, func(i, j int) bool {
				return y.months[i].Month < y.months[j].Month
			})
			breakdown = append(breakdown, models.ProvinceYear{
				Year:             year,
				TotalAmount:      y.total.InexactFloat64(),
				MonthlyBreakdown: y.months,
			})
			total = total.Add(y.total)
		}

		reports = append(reports, models.ProvinceReport{
			Province:        name,
			TotalAmount:     total.InexactFloat64(),
			YearlyBreakdown: breakdown,
		})
	}
	return reports
}

type institutionKey struct {
	name, code string
}

type institutionYear struct {
	year   int
	count  int
	amount decimal.Decimal
	months []models.InstitutionMonth
}

type institutionAcc struct {
	key    institutionKey
	count  int
	amount decimal.Decimal
	order  []int // years in first-seen order
	years  map[int]*institutionYear
}

// AggregateByInstitution folds rows grouped by (institution, year, month) into
// one report per institution. Years and months keep the order they arrive in;
// only the institutions themselves are sorted, largest total first.
func AggregateByInstitution(rows []models.InstitutionRow) []models.InstitutionReport {
	var order []*institutionAcc
	byKey := make(map[institutionKey]*institutionAcc)

	for _, r := range rows {
		k := institutionKey{r.InstitutionName, r.InstitutionCode}
		acc, ok := byKey[k]
		if !ok {
			acc = &institutionAcc{key: k, amount: decimal.Zero, years: make(map[int]*institutionYear)}
			byKey[k] = acc
			order = append(order, acc)
		}
		y, ok := acc.years[r.Year]
		if !ok {
			y = &institutionYear{year: r.Year, amount: decimal.Zero}
			acc.years[r.Year] = y
			acc.order = append(acc.order, r.Year)
		}

		y.count += r.Count
		y.amount = y.amount.Add(r.Amount)
		y.months = append(y.months, models.InstitutionMonth{
			Month:       r.MonthName,
			MonthNumber: r.MonthNumber,
			Count:       r.Count,
			Amount:      r.Amount.InexactFloat64(),
		})
		acc.count += r.Count
		acc.amount = acc.amount.Add(r.Amount)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].amount.GreaterThan(order[j].amount)
	})

	reports := make([]models.InstitutionReport, 0, len(order))
	for _, acc := range order {
		stats := make([]models.InstitutionYear, 0, len(acc.order))
		for _, year := range acc.order {
			y := acc.years[year]
			stats = append(stats, models.InstitutionYear{
				Year:         y.year,
				Count:        y.count,
				Amount:       y.amount.InexactFloat64(),
				MonthlyStats: y.months,
			})
		}
		reports = append(reports, models.InstitutionReport{
			InstitutionName: acc.key.name,
			InstitutionCode: acc.key.code,
			TotalPayments:   acc.count,
			TotalAmount:     acc.amount.Round(2).InexactFloat64(),
			YearlyStats:     stats,
		})
	}
	return reports
}
