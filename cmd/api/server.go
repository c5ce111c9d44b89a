package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mcclellann/studentLoan/pkg/ledger"
	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/mcclellann/studentLoan/pkg/registry"
	"github.com/mcclellann/studentLoan/pkg/report"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// Server holds the services behind the HTTP handlers.
type Server struct {
	ledger   *ledger.Ledger
	registry *registry.Registry
	reporter *report.Reporter
	log      logrus.FieldLogger
}

func NewServer(s store.Storage, l *ledger.Ledger, log logrus.FieldLogger) *Server {
	return &Server{
		ledger:   l,
		registry: registry.New(s, log),
		reporter: report.NewReporter(s, log),
		log:      log,
	}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/health", s.healthHandler).Methods("GET")

	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/make-payment", s.makePaymentHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/payments", s.loanPaymentsHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/study-info", s.attachStudyInfoHandler).Methods("PUT")
	router.HandleFunc("/stats/yearly/loan/{id}/payments", s.yearlyStatsHandler).Methods("GET")

	router.HandleFunc("/payments/monthly-by-province", s.paymentsByProvinceHandler).Methods("GET")
	router.HandleFunc("/payments/monthly-by-institution", s.paymentsByInstitutionHandler).Methods("GET")
	router.HandleFunc("/provinces/student-count", s.provinceStudentCountHandler).Methods("GET")

	router.HandleFunc("/students", s.registerStudentHandler).Methods("POST")
	router.HandleFunc("/students/lastname/{lastname}", s.studentsByLastNameHandler).Methods("GET")
	router.HandleFunc("/students/incomplete-registration", s.incompleteRegistrationHandler).Methods("GET")
	router.HandleFunc("/student/update/communication", s.updateCommunicationHandler).Methods("POST")
	router.HandleFunc("/student/update/address", s.updateAddressHandler).Methods("POST")

	return router
}

type envelope struct {
	Status  string `json:"status"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func respondList[T any](w http.ResponseWriter, items []T) {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Count: &n, Data: items})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: "error", Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail maps err to a status code. Store failures are logged and their
// details kept out of the response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		msg = "internal server error"
	}
	respondError(w, status, msg)
}

// decode reads a JSON body into dst and runs its validation tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"service": "studentLoan"})
}

// parseDisbursementDate returns the zero time for an empty value, which the
// ledger reads as today.
func parseDisbursementDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: disbursementDate must be YYYY-MM-DD: %v", models.ErrValidation, err)
	}
	return d, nil
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID              string          `json:"studentId"`
		EnrollmentType         string          `json:"enrollmentType"`
		Principal              decimal.Decimal `json:"principal"`
		DisbursementDate       string          `json:"disbursementDate" validate:"omitempty,datetime=2006-01-02"`
		EducationInstitutionID *int64          `json:"educationInstitutionId"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	disbursed, err := parseDisbursementDate(req.DisbursementDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	loan, err := s.ledger.DisburseLoan(r.Context(), ledger.DisbursementRequest{
		StudentID:              req.StudentID,
		EnrollmentType:         req.EnrollmentType,
		Principal:              req.Principal,
		DisbursementDate:       disbursed,
		EducationInstitutionID: req.EducationInstitutionID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loan, err := s.ledger.GetLoan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, loan)
}

func (s *Server) makePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoanID string          `json:"loanid" validate:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.ledger.PostPayment(r.Context(), req.LoanID, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, result)
}

func (s *Server) loanPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	payments, err := s.ledger.PaymentHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondList(w, payments)
}

func (s *Server) attachStudyInfoHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProgramOfStudy string `json:"programOfStudy" validate:"required"`
		ProgramCode    string `json:"programCode"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	info, err := s.registry.AttachStudyInfo(r.Context(), mux.Vars(r)["id"], models.StudyInfo{
		ProgramOfStudy: req.ProgramOfStudy,
		ProgramCode:    req.ProgramCode,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, info)
}

func (s *Server) yearlyStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.YearlyStats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func (s *Server) paymentsByProvinceHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reporter.PaymentsByProvince(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondList(w, reports)
}

func (s *Server) paymentsByInstitutionHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reporter.PaymentsByInstitution(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondList(w, reports)
}

func (s *Server) provinceStudentCountHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.reporter.ProvinceStudentCounts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondList(w, counts)
}

type contactRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email" validate:"omitempty,email"`
	Preference  string `json:"preference" validate:"required,oneof=SMS Call Email"`
}

func (c contactRequest) communication() models.Communication {
	return models.Communication{
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		Preference:  models.Preference(c.Preference),
	}
}

func (s *Server) registerStudentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName   string `json:"firstName" validate:"required"`
		LastName    string `json:"lastName" validate:"required"`
		HomeAddress string `json:"homeAddress"`
		contactRequest
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	student, err := s.registry.Register(r.Context(), registry.NewStudent{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		HomeAddress: req.HomeAddress,
		Contact:     req.communication(),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, student)
}

func (s *Server) studentsByLastNameHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.registry.FindByLastName(r.Context(), mux.Vars(r)["lastname"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondList(w, profiles)
}

func (s *Server) incompleteRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	regs, err := s.registry.IncompleteRegistrations(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondList(w, regs)
}

func (s *Server) updateCommunicationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID string `json:"studentId" validate:"required"`
		contactRequest
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	contact, err := s.registry.UpdateCommunication(r.Context(), req.StudentID, req.communication())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, contact)
}

func (s *Server) updateAddressHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID   string `json:"studentId" validate:"required"`
		HomeAddress string `json:"homeAddress" validate:"required"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	student, err := s.registry.UpdateAddress(r.Context(), req.StudentID, req.HomeAddress)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, student)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("Handled request")
	})
}
