// Package registry manages students, their contact details and the study
// information attached to their loans.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/sirupsen/logrus"
)

type Registry struct {
	storage store.Storage
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(s store.Storage, log logrus.FieldLogger) *Registry {
	return &Registry{storage: s, log: log, now: time.Now}
}

// NewStudent is the data needed to register a student.
type NewStudent struct {
	FirstName   string
	LastName    string
	HomeAddress string
	Contact     models.Communication
}

func (r *Registry) Register(ctx context.Context, req NewStudent) (*models.Student, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", models.ErrValidation)
	}
	if !req.Contact.Preference.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidPreference, req.Contact.Preference)
	}

	student := &models.Student{
		ID:          uuid.New().String(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		HomeAddress: req.HomeAddress,
	}
	contact := req.Contact
	if err := r.storage.CreateStudent(ctx, student, &contact); err != nil {
		return nil, fmt.Errorf("failed to register student: %w", err)
	}

	r.log.WithField("student_id", student.ID).Info("Student registered")
	return student, nil
}

// FindByLastName returns every student whose last name contains fragment.
func (r *Registry) FindByLastName(ctx context.Context, fragment string) ([]*models.StudentProfile, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, fmt.Errorf("%w: last name is required", models.ErrValidation)
	}
	return r.storage.FindStudentsByLastName(ctx, fragment)
}

func (r *Registry) UpdateCommunication(ctx context.Context, studentID string, c models.Communication) (*models.StudentContact, error) {
	if !c.Preference.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidPreference, c.Preference)
	}
	contact, err := r.storage.UpdateCommunication(ctx, studentID, &c)
	if err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"student_id": studentID, "preference": c.Preference}).Info("Communication updated")
	return contact, nil
}

func (r *Registry) UpdateAddress(ctx context.Context, studentID, address string) (*models.Student, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: home address is required", models.ErrValidation)
	}
	student, err := r.storage.UpdateAddress(ctx, studentID, address)
	if err != nil {
		return nil, err
	}
	r.log.WithField("student_id", studentID).Info("Address updated")
	return student, nil
}

// IncompleteRegistrations lists students that still lack a loan, a program of
// study or an education institution, naming what is missing for each.
func (r *Registry) IncompleteRegistrations(ctx context.Context) ([]*models.IncompleteRegistration, error) {
	regs, err := r.storage.GetIncompleteRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		reg.MissingRequirements = missingRequirements(reg)
	}
	return regs, nil
}

// missingRequirements labels what a registration lacks. Without a loan there
// is nowhere to hang study info or a college, so all three are missing.
func missingRequirements(reg *models.IncompleteRegistration) []string {
	if !reg.HasLoan {
		return []string{models.RequirementLoan, models.RequirementStudyInfo, models.RequirementInstitution}
	}
	missing := []string{}
	if !reg.HasStudyInfo {
		missing = append(missing, models.RequirementStudyInfo)
	}
	if !reg.HasInstitution {
		missing = append(missing, models.RequirementInstitution)
	}
	return missing
}

func (r *Registry) AttachStudyInfo(ctx context.Context, loanID string, info models.StudyInfo) (*models.StudyInfo, error) {
	if strings.TrimSpace(info.ProgramOfStudy) == "" {
		return nil, fmt.Errorf("%w: program of study is required", models.ErrValidation)
	}
	if err := r.storage.AttachStudyInfo(ctx, loanID, &info, r.now().UTC()); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"loan_id": loanID, "study_info_id": info.ID}).Info("Study info attached")
	return &info, nil
}
