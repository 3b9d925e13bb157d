package filter

import (
	"unicode"

	log "github.com/sirupsen/logrus"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/schema"
)

// Override carries a column's explicit filter configuration. The zero value
// means "infer everything"; a non-empty Kind always wins over the descriptor.
type Override struct {
	Kind    Kind
	Options Options
}

// Infer decides the filter kind and options for one field. found=false means
// the field did not resolve on the schema; inference still succeeds with the
// text fallback so a misconfigured column degrades instead of blocking.
//
// Option gaps are filled regardless of override: a missing prompt derives
// from the humanized path, missing choices derive from enum values.
func Infer(path fieldpath.FieldPath, desc schema.Descriptor, found bool, ov Override) (Kind, Options) {
	kind := ov.Kind
	if kind == "" {
		kind = inferKind(path, desc, found)
	}
	opts := ov.Options
	if opts.Prompt == "" {
		opts.Prompt = path.Humanize()
	}
	if len(opts.Choices) == 0 {
		opts.Choices = choicesFor(kind, desc)
	}
	return kind, opts
}

func inferKind(path fieldpath.FieldPath, desc schema.Descriptor, found bool) Kind {
	if !found {
		log.Warnf("filter: field %s does not resolve on the schema, falling back to text", path)
		return Text
	}
	switch desc.Type {
	case schema.TypeBoolean:
		return Boolean
	case schema.TypeDate, schema.TypeDatetime:
		return DateRange
	case schema.TypeInteger, schema.TypeDecimal, schema.TypeFloat:
		return NumberRange
	case schema.TypeEnum:
		return Select
	case schema.TypeArray:
		return MultiSelect
	default:
		return Text
	}
}

func choicesFor(kind Kind, desc schema.Descriptor) []Option {
	switch kind {
	case Select:
		return optionList(desc.Values)
	case MultiSelect, MultiCheckboxes:
		if desc.Type == schema.TypeArray && desc.Elem != nil {
			return optionList(desc.Elem.Values)
		}
		return optionList(desc.Values)
	}
	return nil
}

func optionList(values []string) []Option {
	if len(values) == 0 {
		return nil
	}
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Label: OptionLabel(v), Value: v}
	}
	return opts
}

// OptionLabel derives a display label from a raw option value:
// identifier-shaped values title-case with underscores as spaces, values
// starting with a letter get the first letter capitalized, anything else
// passes through unchanged.
func OptionLabel(v string) string {
	if v == "" {
		return v
	}
	if fieldpath.ValidName(v) {
		return fieldpath.HumanizeName(v)
	}
	r := []rune(v)
	if !unicode.IsLetter(r[0]) {
		return v
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
