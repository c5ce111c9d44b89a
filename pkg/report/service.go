package report

import (
	"context"
	"fmt"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/sirupsen/logrus"
)

// Reporter runs the grouped payment queries and folds their rows.
type Reporter struct {
	storage store.Storage
	log     logrus.FieldLogger
}

func NewReporter(s store.Storage, log logrus.FieldLogger) *Reporter {
	return &Reporter{storage: s, log: log}
}

func (r *Reporter) PaymentsByProvince(ctx context.Context) ([]models.ProvinceReport, error) {
	rows, err := r.storage.QueryPaymentsByProvinceAndPeriod(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load province payments: %w", err)
	}
	reports := AggregateByProvince(rows)
	r.log.WithFields(logrus.Fields{"rows": len(rows), "provinces": len(reports)}).Debug("Province report built")
	return reports, nil
}

func (r *Reporter) PaymentsByInstitution(ctx context.Context) ([]models.InstitutionReport, error) {
	rows, err := r.storage.QueryPaymentsByInstitutionAndPeriod(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load institution payments: %w", err)
	}
	reports := AggregateByInstitution(rows)
	r.log.WithFields(logrus.Fields{"rows": len(rows), "institutions": len(reports)}).Debug("Institution report built")
	return reports, nil
}

// ProvinceStudentCounts lists every province with the number of students
// whose college is located there.
func (r *Reporter) ProvinceStudentCounts(ctx context.Context) ([]models.ProvinceStudentCount, error) {
	counts, err := r.storage.CountStudentsByProvince(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count students by province: %w", err)
	}
	return counts, nil
}
