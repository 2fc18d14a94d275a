// Package feature implements imputation and categorical mapping of loan
// application fields into the encoded row layout a model bundle expects.
package feature

// Known numeric schema fields.
const (
	FieldPersonAge         = "person_age"
	FieldPersonIncome      = "person_income"
	FieldPersonEmpLength   = "person_emp_length"
	FieldLoanAmount        = "loan_amnt"
	FieldLoanIntRate       = "loan_int_rate"
	FieldLoanPercentIncome = "loan_percent_income"
	FieldCredHistLength    = "cb_person_cred_hist_length"
)

// Known categorical schema fields.
const (
	FieldHomeOwnership = "home_ownership"
	FieldLoanIntent    = "loan_intent"
	FieldLoanGrade     = "loan_grade"
	FieldDefaultOnFile = "default_on_file"
)

// NumericFields lists every known numeric field in schema order.
var NumericFields = []string{
	FieldPersonAge,
	FieldPersonIncome,
	FieldPersonEmpLength,
	FieldLoanAmount,
	FieldLoanIntRate,
	FieldLoanPercentIncome,
	FieldCredHistLength,
}

// CategoricalFields lists every known categorical field in schema order.
var CategoricalFields = []string{
	FieldHomeOwnership,
	FieldLoanIntent,
	FieldLoanGrade,
	FieldDefaultOnFile,
}

// numericDefaults are the domain-safe fallbacks used when neither a
// derivation nor a reference statistic is available.
var numericDefaults = map[string]float64{
	FieldPersonAge:         35,    // median working age
	FieldPersonIncome:      50000, // median income
	FieldPersonEmpLength:   24,    // two years employment, in months
	FieldLoanAmount:        10000, // typical loan amount
	FieldLoanIntRate:       10.0,  // average interest rate
	FieldLoanPercentIncome: 0.25,  // conservative quarter of income
	FieldCredHistLength:    5,     // five years of credit history
}

// categoricalDefaults are the domain-safe fallback labels.
var categoricalDefaults = map[string]string{
	FieldHomeOwnership: "RENT",
	FieldLoanIntent:    "PERSONAL",
	FieldLoanGrade:     "C",
	FieldDefaultOnFile: "N",
}

// CategoricalValues maps each categorical field to its known label set.
var CategoricalValues = map[string][]string{
	FieldHomeOwnership: {"RENT", "OWN", "MORTGAGE", "OTHER"},
	FieldLoanIntent:    {"PERSONAL", "EDUCATION", "MEDICAL", "VENTURE", "HOMEIMPROVEMENT", "DEBTCONSOLIDATION"},
	FieldLoanGrade:     {"A", "B", "C", "D", "E", "F", "G"},
	FieldDefaultOnFile: {"Y", "N"},
}

// encodedPrefixes maps categorical fields to the column prefix used by
// the trained bundles. Two fields carry historical prefixes that differ
// from the field name and must be preserved for schema agreement with
// existing artifacts.
var encodedPrefixes = map[string]string{
	FieldHomeOwnership: "person_home_ownership",
	FieldLoanIntent:    "loan_intent",
	FieldLoanGrade:     "loan_grade",
	FieldDefaultOnFile: "cb_person_default_on_file",
}

// EncodedPrefix returns the indicator-column prefix for a categorical
// field, falling back to the field name for dynamically discovered ones.
func EncodedPrefix(field string) string {
	if p, ok := encodedPrefixes[field]; ok {
		return p
	}
	return field
}
