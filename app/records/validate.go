package records

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/web/enums"
)

// field names used as keys of ValidationError.Fields
const (
	FieldCompanyName     = "company_name"
	FieldRole            = "role"
	FieldApplicationDate = "application_date"
	FieldStatus          = "status"
)

// MaxFieldLen is the maximum length of company name and role, in characters
const MaxFieldLen = 100

// MinApplicationDate is the earliest accepted application date
var MinApplicationDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Input is a validated set of fields for a new job application
type Input struct {
	CompanyName     string
	Role            string
	ApplicationDate time.Time
	Status          enums.Status
}

// Changes is a partial update, nil fields are left as is
type Changes struct {
	CompanyName     *string
	Role            *string
	ApplicationDate *time.Time
	Status          *enums.Status
}

// Form is the raw, unparsed content of the create/edit form
type Form struct {
	CompanyName     string `json:"company_name" jsonschema:"required,minLength=1,maxLength=100"`
	Role            string `json:"role" jsonschema:"required,minLength=1,maxLength=100"`
	ApplicationDate string `json:"application_date" jsonschema:"required,format=date"` // YYYY-MM-DD
	Status          string `json:"status" jsonschema:"required,enum=Applied,enum=Interview,enum=Rejected,enum=Offer"`
}

// Patch is the raw content of a partial update, absent fields are nil
type Patch struct {
	CompanyName     *string `json:"company_name,omitempty"`
	Role            *string `json:"role,omitempty"`
	ApplicationDate *string `json:"application_date,omitempty"`
	Status          *string `json:"status,omitempty"`
}

// DefaultForm returns the form for a new application: empty strings, today and Applied
func DefaultForm(today time.Time) Form {
	return Form{ApplicationDate: today.Format(persistence.DateLayout), Status: enums.StatusApplied.String()}
}

// FormFor returns the form pre-populated from an existing record
func FormFor(job persistence.Job) Form {
	return Form{
		CompanyName:     job.CompanyName,
		Role:            job.Role,
		ApplicationDate: job.ApplicationDate.Format(persistence.DateLayout),
		Status:          job.Status.String(),
	}
}

// Validate parses the raw form and checks every field.
// Returns *ValidationError with all failed fields if the form is not valid.
func Validate(f Form, today time.Time) (Input, error) {
	verr := &ValidationError{}
	in := Input{
		CompanyName: checkText(verr, FieldCompanyName, "Company name", f.CompanyName),
		Role:        checkText(verr, FieldRole, "Role", f.Role),
	}
	in.ApplicationDate = parseDate(verr, f.ApplicationDate, today)
	in.Status = parseStatus(verr, f.Status)
	if err := verr.orNil(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Changes parses the present fields of the patch
func (p Patch) Changes(today time.Time) (Changes, error) {
	verr := &ValidationError{}
	var ch Changes
	if p.CompanyName != nil {
		v := checkText(verr, FieldCompanyName, "Company name", *p.CompanyName)
		ch.CompanyName = &v
	}
	if p.Role != nil {
		v := checkText(verr, FieldRole, "Role", *p.Role)
		ch.Role = &v
	}
	if p.ApplicationDate != nil {
		v := parseDate(verr, *p.ApplicationDate, today)
		ch.ApplicationDate = &v
	}
	if p.Status != nil {
		v := parseStatus(verr, *p.Status)
		ch.Status = &v
	}
	if err := verr.orNil(); err != nil {
		return Changes{}, err
	}
	return ch, nil
}

// Changes converts the full input into changes setting every field
func (in Input) Changes() Changes {
	return Changes{CompanyName: &in.CompanyName, Role: &in.Role, ApplicationDate: &in.ApplicationDate, Status: &in.Status}
}

// check verifies already typed input, used for callers bypassing Validate
func (in Input) check(today time.Time) error {
	return Changes{CompanyName: &in.CompanyName, Role: &in.Role, ApplicationDate: &in.ApplicationDate,
		Status: &in.Status}.check(today)
}

func (ch Changes) check(today time.Time) error {
	verr := &ValidationError{}
	if ch.CompanyName != nil {
		checkText(verr, FieldCompanyName, "Company name", *ch.CompanyName)
	}
	if ch.Role != nil {
		checkText(verr, FieldRole, "Role", *ch.Role)
	}
	if ch.ApplicationDate != nil {
		checkDate(verr, *ch.ApplicationDate, today)
	}
	if ch.Status != nil && ch.Status.IsZero() {
		verr.add(FieldStatus, statusMessage())
	}
	return verr.orNil()
}

// normalized returns changes with text fields trimmed and the date truncated to a calendar day
func (ch Changes) normalized() Changes {
	res := ch
	if ch.CompanyName != nil {
		v := strings.TrimSpace(*ch.CompanyName)
		res.CompanyName = &v
	}
	if ch.Role != nil {
		v := strings.TrimSpace(*ch.Role)
		res.Role = &v
	}
	if ch.ApplicationDate != nil {
		v := dateOnly(*ch.ApplicationDate)
		res.ApplicationDate = &v
	}
	return res
}

func checkText(verr *ValidationError, field, title, v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		verr.add(field, title+" is required")
	case utf8.RuneCountInString(v) > MaxFieldLen:
		verr.add(field, fmt.Sprintf("%s must be at most %d characters", title, MaxFieldLen))
	}
	return v
}

func parseDate(verr *ValidationError, v string, today time.Time) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		verr.add(FieldApplicationDate, "Application date is required")
		return time.Time{}
	}
	d, err := time.Parse(persistence.DateLayout, v)
	if err != nil {
		verr.add(FieldApplicationDate, "Application date must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	checkDate(verr, d, today)
	return d
}

func checkDate(verr *ValidationError, d, today time.Time) {
	d = dateOnly(d)
	if d.Before(MinApplicationDate) || d.After(dateOnly(today)) {
		verr.add(FieldApplicationDate, "Application date must be between 1900-01-01 and today")
	}
}

func parseStatus(verr *ValidationError, v string) enums.Status {
	st, err := enums.ParseStatus(strings.TrimSpace(v))
	if err != nil {
		verr.add(FieldStatus, statusMessage())
		return enums.Status{}
	}
	return st
}

func statusMessage() string {
	return "Status must be one of " + strings.Join(enums.StatusNames(), ", ")
}

// dateOnly drops the time of day, keeping the calendar date of t in its own location
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
