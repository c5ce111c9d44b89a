// Package scheduler runs the periodic payment digest.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// InstitutionReporter produces the institution payment report.
type InstitutionReporter interface {
	PaymentsByInstitution(ctx context.Context) ([]models.InstitutionReport, error)
}

// Digest logs a summary of payments per financial institution on a cron
// schedule.
type Digest struct {
	cron     *cron.Cron
	reporter InstitutionReporter
	log      logrus.FieldLogger
	timeout  time.Duration
}

// NewDigest registers the digest job. schedule accepts the standard
// five-field cron syntax and descriptors such as "@daily" or "@every 1h".
func NewDigest(schedule string, reporter InstitutionReporter, log logrus.FieldLogger) (*Digest, error) {
	d := &Digest{
		cron:     cron.New(),
		reporter: reporter,
		log:      log,
		timeout:  30 * time.Second,
	}
	if _, err := d.cron.AddFunc(schedule, d.Run); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return d, nil
}

func (d *Digest) Start() {
	d.cron.Start()
	d.log.Info("Payment digest scheduler started")
}

// Stop waits for a running digest to finish.
func (d *Digest) Stop() {
	<-d.cron.Stop().Done()
	d.log.Info("Payment digest scheduler stopped")
}

// Run builds the institution report once and logs one line per institution.
func (d *Digest) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	d.log.Info("Running payment digest...")
	reports, err := d.reporter.PaymentsByInstitution(ctx)
	if err != nil {
		d.log.WithError(err).Error("Payment digest failed")
		return
	}
	for _, r := range reports {
		d.log.WithFields(logrus.Fields{
			"institution":    r.InstitutionName,
			"code":           r.InstitutionCode,
			"total_payments": r.TotalPayments,
			"total_amount":   r.TotalAmount,
		}).Info("Institution payment totals")
	}
	d.log.WithField("institutions", len(reports)).Info("Payment digest complete.")
}
