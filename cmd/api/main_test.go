package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/mcclellann/studentLoan/pkg/ledger"
	"github.com/mcclellann/studentLoan/pkg/models"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	server  *Server
	router  *mux.Router
	storage store.Storage
}

func setupTestServer(t *testing.T) *testAPI {
	t.Helper()
	log, _ := test.NewNullLogger()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.CreateFinancialInstitution(ctx, &models.FinancialInstitution{Name: "Royal Bank", Code: "RBC", Type: "Bank", Active: true}))

	server := NewServer(s, ledger.NewLedger(s, ledger.WithLogger(log)), log)
	return &testAPI{server: server, router: server.routes(), storage: s}
}

type response struct {
	Status  string          `json:"status"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)

	var resp response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr.Code, resp
}

func (a *testAPI) createLoan(t *testing.T, body map[string]any) models.Loan {
	t.Helper()
	code, resp := a.do(t, "POST", "/loans", body)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var loan models.Loan
	require.NoError(t, json.Unmarshal(resp.Data, &loan))
	return loan
}

func TestAPI_CreateAndGetLoan(t *testing.T) {
	api := setupTestServer(t)

	created := api.createLoan(t, map[string]any{
		"enrollmentType":   "Full-Time",
		"principal":        5000.0,
		"disbursementDate": "2024-09-01",
	})
	assert.Equal(t, "0%", created.PercentagePaid)

	code, resp := api.do(t, "GET", "/loans/"+created.ID, nil)
	require.Equal(t, http.StatusOK, code)
	var fetched models.Loan
	require.NoError(t, json.Unmarshal(resp.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "2024-09-01", fetched.DisbursementDate.Format(models.DateLayout))

	code, resp = api.do(t, "GET", "/loans/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", resp.Status)
}

func TestAPI_CreateLoanValidation(t *testing.T) {
	api := setupTestServer(t)

	code, _ := api.do(t, "POST", "/loans", map[string]any{"principal": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, "POST", "/loans", map[string]any{"principal": 100, "disbursementDate": "01/09/2024"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, "POST", "/loans", map[string]any{"principal": 100, "studentId": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestParseDisbursementDate(t *testing.T) {
	d, err := parseDisbursementDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseDisbursementDate("2024-09-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-01", d.Format(models.DateLayout))

	for _, raw := range []string{"2024-02-30", "01/09/2024", "tomorrow"} {
		_, err := parseDisbursementDate(raw)
		assert.ErrorIs(t, err, models.ErrValidation, raw)
	}
}

func TestAPI_MakePayment(t *testing.T) {
	api := setupTestServer(t)
	loan := api.createLoan(t, map[string]any{"principal": 1000})

	code, resp := api.do(t, "POST", "/loans/make-payment", map[string]any{"loanid": loan.ID, "amount": 400})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var result models.PaymentResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "600", result.NewBalance.String())
	assert.Equal(t, "40%", result.PercentagePaid)
	assert.False(t, result.IsFullyPaid)

	code, resp = api.do(t, "POST", "/loans/make-payment", map[string]any{"loanid": loan.ID, "amount": "600"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.True(t, result.IsFullyPaid)
	require.NotNil(t, result.PayoffDate)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"paid off", map[string]any{"loanid": loan.ID, "amount": 100}, http.StatusConflict},
		{"unknown loan", map[string]any{"loanid": "missing", "amount": 100}, http.StatusNotFound},
		{"missing loan id", map[string]any{"amount": 100}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := api.do(t, "POST", "/loans/make-payment", tt.body)
			assert.Equal(t, tt.want, code)
		})
	}

	code, resp = api.do(t, "GET", "/loans/"+loan.ID+"/payments", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 2, *resp.Count)

	code, resp = api.do(t, "GET", "/stats/yearly/loan/"+loan.ID+"/payments", nil)
	require.Equal(t, http.StatusOK, code)
	var stats models.LoanYearlyStats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 2, stats.TotalPayments)
	assert.Equal(t, "1000", stats.TotalAmountPaid.String())
}

func TestAPI_PaymentRejections(t *testing.T) {
	api := setupTestServer(t)
	loan := api.createLoan(t, map[string]any{"principal": 1000})

	code, resp := api.do(t, "POST", "/loans/make-payment", map[string]any{"loanid": loan.ID, "amount": 50})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "below minimum")

	code, _ = api.do(t, "POST", "/loans/make-payment", map[string]any{"loanid": loan.ID, "amount": 5000})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(t, "POST", "/loans/make-payment", map[string]any{"loanid": loan.ID, "amount": "999.996"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "two decimal places")

	code, _ = api.do(t, "GET", "/loans/"+loan.ID+"/payments", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_StudentsAndReports(t *testing.T) {
	api := setupTestServer(t)
	ctx := context.Background()

	province := &models.Province{Name: "Ontario"}
	require.NoError(t, api.storage.CreateProvince(ctx, province))
	college := &models.EducationInstitution{Name: "Humber", City: "Toronto", ProvinceID: province.ID}
	require.NoError(t, api.storage.CreateEducationInstitution(ctx, college))

	code, resp := api.do(t, "POST", "/students", map[string]any{
		"firstName":   "Grace",
		"lastName":    "Hopper",
		"homeAddress": "1 Navy Way",
		"email":       "grace@example.com",
		"preference":  "Email",
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var student models.Student
	require.NoError(t, json.Unmarshal(resp.Data, &student))

	code, resp = api.do(t, "GET", "/students/incomplete-registration", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *resp.Count)

	loan := api.createLoan(t, map[string]any{"principal": 2000, "studentId": student.ID, "educationInstitutionId": college.ID})
	code, _ = api.do(t, "PUT", "/loans/"+loan.ID+"/study-info", map[string]any{"programOfStudy": "Computer Science", "programCode": "CS"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = api.do(t, "PUT", "/loans/"+loan.ID+"/study-info", map[string]any{"programOfStudy": "Math"})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = api.do(t, "GET", "/students/incomplete-registration", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, *resp.Count)
	assert.JSONEq(t, `[]`, string(resp.Data))

	code, _ = api.do(t, "POST", "/loans/make-payment", map[string]any{"loanid": loan.ID, "amount": 250})
	require.Equal(t, http.StatusCreated, code)

	code, resp = api.do(t, "GET", "/students/lastname/hop", nil)
	require.Equal(t, http.StatusOK, code)
	var profiles []models.StudentProfile
	require.NoError(t, json.Unmarshal(resp.Data, &profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, "Computer Science", *profiles[0].ProgramOfStudy)

	code, resp = api.do(t, "GET", "/payments/monthly-by-province", nil)
	require.Equal(t, http.StatusOK, code)
	var provinces []models.ProvinceReport
	require.NoError(t, json.Unmarshal(resp.Data, &provinces))
	require.Len(t, provinces, 1)
	assert.Equal(t, 250.0, provinces[0].TotalAmount)

	code, resp = api.do(t, "GET", "/payments/monthly-by-institution", nil)
	require.Equal(t, http.StatusOK, code)
	var institutions []models.InstitutionReport
	require.NoError(t, json.Unmarshal(resp.Data, &institutions))
	require.Len(t, institutions, 1)
	assert.Equal(t, "RBC", institutions[0].InstitutionCode)

	code, resp = api.do(t, "GET", "/provinces/student-count", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"province":"Ontario","studentCount":1}]`, string(resp.Data))

	code, resp = api.do(t, "POST", "/student/update/communication", map[string]any{
		"studentId": student.ID, "phoneNumber": "555-1234", "preference": "SMS",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, _ = api.do(t, "POST", "/student/update/communication", map[string]any{
		"studentId": student.ID, "preference": "Carrier Pigeon",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, "POST", "/student/update/address", map[string]any{"studentId": student.ID, "homeAddress": "2 Fleet St"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, "POST", "/student/update/address", map[string]any{"studentId": "ghost", "homeAddress": "nowhere"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_InvalidJSON(t *testing.T) {
	api := setupTestServer(t)
	req := httptest.NewRequest("POST", "/students", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", models.ErrLoanNotFound), http.StatusNotFound},
		{models.ErrAmountExceedsBalance, http.StatusBadRequest},
		{models.ErrLoanPaidOff, http.StatusConflict},
		{models.StoreError("query", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestAPI_Health(t *testing.T) {
	api := setupTestServer(t)
	code, resp := api.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)
}
