package models

import "github.com/shopspring/decimal"

// Preference is the channel a student wants to be contacted on.
type Preference string

const (
	PreferenceSMS   Preference = "SMS"
	PreferenceCall  Preference = "Call"
	PreferenceEmail Preference = "Email"
)

// Valid reports whether p is one of the supported channels.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceSMS, PreferenceCall, PreferenceEmail:
		return true
	}
	return false
}

type Communication struct {
	ID          int64      `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	Email       string     `json:"email"`
	Preference  Preference `json:"preference"`
}

type Student struct {
	ID              string  `json:"studentId"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	HomeAddress     string  `json:"homeAddress"`
	CommunicationID int64   `json:"communicationId"`
	LoanID          *string `json:"loanId,omitempty"`
}

// StudentContact is a student together with their communication record.
type StudentContact struct {
	StudentID   string     `json:"studentId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	PhoneNumber string     `json:"phoneNumber"`
	Email       string     `json:"email"`
	Preference  Preference `json:"preference"`
}

// StudentProfile is the flattened view used by the last-name search. Every
// joined column is optional since a student may not have a loan yet.
type StudentProfile struct {
	StudentID               string           `json:"studentId"`
	FirstName               string           `json:"firstName"`
	LastName                string           `json:"lastName"`
	HomeAddress             string           `json:"homeAddress"`
	PhoneNumber             *string          `json:"phoneNumber"`
	Email                   *string          `json:"email"`
	CommunicationPreference *string          `json:"communicationPreference"`
	EnrollmentType          *string          `json:"enrollmentType"`
	LoanAmount              *decimal.Decimal `json:"loanAmount"`
	DisbursementDate        *string          `json:"disbursementDate"`
	LoanBalance             *decimal.Decimal `json:"loanBalance"`
	PercentagePaid          *string          `json:"percentagePaid"`
	ProgramOfStudy          *string          `json:"programOfStudy"`
	ProgramCode             *string          `json:"programCode"`
	CollegeName             *string          `json:"collegeName"`
	CollegeCity             *string          `json:"collegeCity"`
	Province                *string          `json:"province"`
}

const (
	RequirementLoan        = "Loan Information"
	RequirementStudyInfo   = "Program of Study"
	RequirementInstitution = "Education Institution"
)

type IncompleteRegistration struct {
	StudentID           string     `json:"studentId"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	HomeAddress         string     `json:"homeAddress"`
	PhoneNumber         string     `json:"phoneNumber"`
	Email               string     `json:"email"`
	Preference          Preference `json:"preference"`
	HasLoan             bool       `json:"-"`
	HasStudyInfo        bool       `json:"-"`
	HasInstitution      bool       `json:"-"`
	MissingRequirements []string   `json:"missingRequirements"`
}
