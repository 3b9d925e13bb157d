package filter

// Value is one decoded filter value. The shape follows the kind: scalar kinds
// carry Str, list kinds carry List, range kinds carry Min and Max where a
// blank side means an open bound. Values for which IsEmpty is true are never
// stored in interaction state.
type Value struct {
	Kind Kind
	Op   Operator
	Str  string
	List []string
	Min  string
	Max  string
}

// IsEmpty reports whether the value filters nothing. Callers drop empty
// values instead of storing them, which keeps interaction state sparse.
func IsEmpty(v Value) bool {
	switch v.Kind {
	case MultiSelect, MultiCheckboxes:
		return len(v.List) == 0
	case NumberRange, DateRange:
		return v.Min == "" && v.Max == ""
	default:
		return v.Str == ""
	}
}

// Equal reports whether two values decode and encode identically.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Op != o.Op || v.Str != o.Str || v.Min != o.Min || v.Max != o.Max {
		return false
	}
	if len(v.List) != len(o.List) {
		return false
	}
	for i := range v.List {
		if v.List[i] != o.List[i] {
			return false
		}
	}
	return true
}
