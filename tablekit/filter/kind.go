// Package filter infers filter kinds from schema descriptors and converts
// filter values between their URL wire form and their typed form. Each kind
// owns a uniform decode/encode/empty contract; the query compiler adds the
// matching SQL predicate per kind.
package filter

// Kind identifies the interaction style of one filter.
type Kind string

const (
	Text            Kind = "text"
	Select          Kind = "select"
	MultiSelect     Kind = "multi_select"
	MultiCheckboxes Kind = "multi_checkboxes"
	Boolean         Kind = "boolean"
	NumberRange     Kind = "number_range"
	DateRange       Kind = "date_range"
	Custom          Kind = "custom"
)

// KnownKind reports whether k is a declared filter kind.
func KnownKind(k Kind) bool {
	switch k {
	case Text, Select, MultiSelect, MultiCheckboxes, Boolean, NumberRange, DateRange, Custom:
		return true
	}
	return false
}

// Operator names the comparison a filter value applies.
type Operator string

const (
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEquals     Operator = "equals"
	OpIn         Operator = "in"
	OpBetween    Operator = "between"
)

// Option is one selectable choice of a select-style filter.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options configures one filter beyond its kind. Zero value means defaults:
// prompt derived from the field path, contains matching for text, choices
// generated from enum values.
type Options struct {
	// Prompt is the input placeholder or label.
	Prompt string
	// Operator selects the text match: contains (default), starts_with or
	// equals.
	Operator Operator
	// Choices lists the selectable values for select-style kinds.
	Choices []Option
	// Handler names the registry entry implementing a custom kind.
	Handler string
}
