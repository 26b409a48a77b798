package entity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Loan statuses as stored in loans.loan_status.
const (
	LoanRejected = 0
	LoanApproved = 1
)

// LoanApplication holds the applicant features submitted through the form.
type LoanApplication struct {
	PersonAge                  float64 `json:"person_age"`
	PersonGender               string  `json:"person_gender"`
	PersonEducation            string  `json:"person_education"`
	PersonIncome               float64 `json:"person_income"`
	PersonEmpExp               float64 `json:"person_emp_exp"`
	PersonHomeOwnership        string  `json:"person_home_ownership"`
	LoanAmnt                   float64 `json:"loan_amnt"`
	LoanIntent                 string  `json:"loan_intent"`
	LoanIntRate                float64 `json:"loan_int_rate"`
	LoanPercentIncome          float64 `json:"loan_percent_income"`
	CbPersonCredHistLength     float64 `json:"cb_person_cred_hist_length"`
	CreditScore                float64 `json:"credit_score"`
	PreviousLoanDefaultsOnFile string  `json:"previous_loan_defaults_on_file"`
}

// Loan is a persisted application together with its predicted outcome.
type Loan struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	LoanStatus int       `json:"loan_status"`
	CreatedAt  time.Time `json:"created_at"`
	LoanApplication
}

// Approved reports whether the classifier accepted the application.
func (l *Loan) Approved() bool {
	return l.LoanStatus == LoanApproved
}

// LoanStats aggregates a user's decisions.
type LoanStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// NewLoanStats derives the rejected count from total and approved.
func NewLoanStats(total, approved int) LoanStats {
	return LoanStats{Total: total, Approved: approved, Rejected: total - approved}
}

// NumericFields lists the application columns parsed as numbers.
var NumericFields = []string{
	"person_age", "person_income", "person_emp_exp", "loan_amnt",
	"loan_int_rate", "loan_percent_income", "cb_person_cred_hist_length", "credit_score",
}

// CategoricalFields lists the application columns kept as strings.
var CategoricalFields = []string{
	"person_gender", "person_education", "person_home_ownership",
	"loan_intent", "previous_loan_defaults_on_file",
}

// ErrFieldTooLong is returned when a text value does not fit its column.
var ErrFieldTooLong = errors.New("field value too long")

// categoricalLimits are the widths of the text columns in the loans table.
var categoricalLimits = map[string]int{
	"person_gender":                  20,
	"person_education":               50,
	"person_home_ownership":          20,
	"loan_intent":                    50,
	"previous_loan_defaults_on_file": 10,
}

// ParseNumber parses a form or CSV number. Missing, unparseable, NaN and
// infinite values become 0.
func ParseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseLoanApplication builds an application from raw form values.
// Numbers are read with ParseNumber.
func ParseLoanApplication(get func(string) string) LoanApplication {
	num := func(key string) float64 {
		return ParseNumber(get(key))
	}
	str := func(key string) string {
		return strings.TrimSpace(get(key))
	}
	return LoanApplication{
		PersonAge:                  num("person_age"),
		PersonGender:               str("person_gender"),
		PersonEducation:            str("person_education"),
		PersonIncome:               num("person_income"),
		PersonEmpExp:               num("person_emp_exp"),
		PersonHomeOwnership:        str("person_home_ownership"),
		LoanAmnt:                   num("loan_amnt"),
		LoanIntent:                 str("loan_intent"),
		LoanIntRate:                num("loan_int_rate"),
		LoanPercentIncome:          num("loan_percent_income"),
		CbPersonCredHistLength:     num("cb_person_cred_hist_length"),
		CreditScore:                num("credit_score"),
		PreviousLoanDefaultsOnFile: str("previous_loan_defaults_on_file"),
	}
}

// Validate checks that every text value fits its column.
func (a LoanApplication) Validate() error {
	features := a.Features()
	for _, name := range CategoricalFields {
		if limit := categoricalLimits[name]; utf8.RuneCountInString(features[name]) > limit {
			return fmt.Errorf("%w: %s is longer than %d characters", ErrFieldTooLong, name, limit)
		}
	}
	return nil
}

// Features flattens the application into column name -> raw value,
// the row shape the prediction pipeline consumes.
func (a LoanApplication) Features() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return map[string]string{
		"person_age":                     f(a.PersonAge),
		"person_gender":                  a.PersonGender,
		"person_education":               a.PersonEducation,
		"person_income":                  f(a.PersonIncome),
		"person_emp_exp":                 f(a.PersonEmpExp),
		"person_home_ownership":          a.PersonHomeOwnership,
		"loan_amnt":                      f(a.LoanAmnt),
		"loan_intent":                    a.LoanIntent,
		"loan_int_rate":                  f(a.LoanIntRate),
		"loan_percent_income":            f(a.LoanPercentIncome),
		"cb_person_cred_hist_length":     f(a.CbPersonCredHistLength),
		"credit_score":                   f(a.CreditScore),
		"previous_loan_defaults_on_file": a.PreviousLoanDefaultsOnFile,
	}
}

/*
Mysql Table

CREATE TABLE loans (
	id INT AUTO_INCREMENT PRIMARY KEY,
	user_id INT NOT NULL,
	person_age DOUBLE NOT NULL,
	person_gender VARCHAR(20) NOT NULL,
	...
	loan_status TINYINT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id)
);
*/

// StatusText is the decision shown to the applicant.
func StatusText(status int) string {
	if status == LoanApproved {
		return "Approved"
	}
	return "Rejected"
}
