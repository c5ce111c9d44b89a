package models

import "github.com/shopspring/decimal"

// ProvinceRow is one (province, year, month) group as returned by the store.
type ProvinceRow struct {
	Province         string
	Year             int
	Month            int
	MonthName        string
	NumberOfStudents int
	TotalAmount      decimal.Decimal
}

// InstitutionRow is one (institution, year, month) group as returned by the
// store, ordered year descending then month descending.
type InstitutionRow struct {
	InstitutionName string
	InstitutionCode string
	Year            int
	MonthName       string
	MonthNumber     int
	Count           int
	Amount          decimal.Decimal
}

type ProvinceMonth struct {
	Month            string  `json:"month"`
	NumberOfStudents int     `json:"numberOfStudents"`
	TotalAmount      float64 `json:"totalAmount"`
}

type ProvinceYear struct {
	Year             int             `json:"year"`
	TotalAmount      float64         `json:"totalAmount"`
	MonthlyBreakdown []ProvinceMonth `json:"monthlyBreakdown"`
}

type ProvinceReport struct {
	Province        string         `json:"province"`
	TotalAmount     float64        `json:"totalAmount"`
	YearlyBreakdown []ProvinceYear `json:"yearlyBreakdown"`
}

type InstitutionMonth struct {
	Month       string  `json:"month"`
	MonthNumber int     `json:"monthNumber"`
	Count       int     `json:"count"`
	Amount      float64 `json:"amount"`
}

type InstitutionYear struct {
	Year         int                `json:"year"`
	Count        int                `json:"count"`
	Amount       float64            `json:"amount"`
	MonthlyStats []InstitutionMonth `json:"monthlyStats"`
}

type InstitutionReport struct {
	InstitutionName string            `json:"institutionName"`
	InstitutionCode string            `json:"institutionCode"`
	TotalPayments   int               `json:"totalPayments"`
	TotalAmount     float64           `json:"totalAmount"`
	YearlyStats     []InstitutionYear `json:"yearlyStats"`
}

type ProvinceStudentCount struct {
	Province     string `json:"province"`
	StudentCount int    `json:"studentCount"`
}
