package filter

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// Decode converts one raw URL value into a typed filter value under the given
// kind. ok=false means the input decodes to nothing and must not be stored.
//
// An unknown kind or an unregistered custom handler never fails: the value
// decodes as text and the problem goes to the log.
func Decode(reg *Registry, kind Kind, opts Options, raw string) (Value, bool) {
	switch kind {
	case Text:
		return decodeText(opts, raw)
	case Select:
		if raw == "" {
			return Value{}, false
		}
		return Value{Kind: Select, Op: OpEquals, Str: raw}, true
	case MultiSelect, MultiCheckboxes:
		items := splitList(raw)
		if len(items) == 0 {
			return Value{}, false
		}
		return Value{Kind: kind, Op: OpIn, List: items}, true
	case Boolean:
		if raw != "true" && raw != "false" {
			return Value{}, false
		}
		return Value{Kind: Boolean, Op: OpEquals, Str: raw}, true
	case NumberRange, DateRange:
		lo, hi := splitRange(raw)
		if lo == "" && hi == "" {
			return Value{}, false
		}
		return Value{Kind: kind, Op: OpBetween, Min: lo, Max: hi}, true
	case Custom:
		if h, ok := reg.Lookup(opts.Handler); ok {
			return h.Decode(raw)
		}
		log.Warnf("filter: no handler registered for custom kind %q, decoding as text", opts.Handler)
		return decodeText(opts, raw)
	default:
		log.Warnf("filter: unknown filter kind %q, decoding as text", kind)
		return decodeText(opts, raw)
	}
}

// Encode renders a value back to its URL wire form, the exact inverse of
// Decode. Multi-select items and range bounds join on a bare comma with no
// escaping, so an item containing a literal comma cannot survive the round
// trip; Encode drops such items with a warning instead of corrupting the
// whole list.
func Encode(reg *Registry, opts Options, v Value) string {
	switch v.Kind {
	case MultiSelect, MultiCheckboxes:
		items := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if strings.Contains(item, ",") {
				log.Warnf("filter: multi-select item %q contains a comma and cannot be encoded, dropping it", item)
				continue
			}
			items = append(items, item)
		}
		return strings.Join(items, ",")
	case NumberRange, DateRange:
		return v.Min + "," + v.Max
	case Custom:
		if h, ok := reg.Lookup(opts.Handler); ok {
			return h.Encode(v)
		}
		log.Warnf("filter: no handler registered for custom kind %q, encoding as text", opts.Handler)
		return v.Str
	default:
		return v.Str
	}
}

// MergeRangeParams folds the discrete range sub-keys of field
// (<field>_min/<field>_max and <field>_from/<field>_to) into the combined
// "min,max" form. The combined key wins when present, so URLs and split form
// submissions both decode through the same path. ok=false means no key for
// the field was present at all.
func MergeRangeParams(params map[string]string, field string) (string, bool) {
	if raw, ok := params[field]; ok {
		return raw, true
	}
	lo, okLo := params[field+"_min"]
	if !okLo {
		lo, okLo = params[field+"_from"]
	}
	hi, okHi := params[field+"_max"]
	if !okHi {
		hi, okHi = params[field+"_to"]
	}
	if !okLo && !okHi {
		return "", false
	}
	return lo + "," + hi, true
}

func decodeText(opts Options, raw string) (Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}, false
	}
	op := opts.Operator
	if op == "" {
		op = OpContains
	}
	return Value{Kind: Text, Op: op, Str: s}, true
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func splitRange(raw string) (string, string) {
	lo, hi, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(lo), strings.TrimSpace(hi)
}
