package models

// Operator compares a resolved field value with the expected value.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorDaysAgo     Operator = "days_ago"
)

// Condition is a predicate over a dot-separated field path.
type Condition struct {
	Field    string   `json:"field"    validate:"required" yaml:"field"`
	Operator Operator `json:"operator" validate:"required" yaml:"operator"`
	Value    any      `json:"value"                        yaml:"value"`
}
