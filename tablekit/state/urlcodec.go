package state

import (
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/filter"
)

// Field is one decodable column binding: the path with its resolved filter
// kind and options, plus what interactions the column allows.
type Field struct {
	Path       fieldpath.FieldPath
	Kind       filter.Kind
	Options    filter.Options
	Filterable bool
	Sortable   bool
}

// Encode serializes a state to URL parameters. Filter values are keyed by
// the URL-safe path form; page is omitted when 1 and sort when empty, so
// the default state serializes to an empty map.
func Encode(s State, fields []Field, reg *filter.Registry) map[string]string {
	params := map[string]string{}
	for _, f := range fields {
		if !f.Filterable {
			continue
		}
		v, ok := s.Filters[f.Path.String()]
		if !ok || filter.IsEmpty(v) {
			continue
		}
		raw := filter.Encode(reg, f.Options, v)
		if raw == "" {
			continue
		}
		params[f.Path.URLSafe()] = raw
	}
	if len(s.Sort) > 0 {
		tokens := make([]string, len(s.Sort))
		for i, e := range s.Sort {
			tok := e.Field.URLSafe()
			if e.Desc {
				tok = "-" + tok
			}
			tokens[i] = tok
		}
		params["sort"] = strings.Join(tokens, ",")
	}
	if s.Page > 1 {
		params["page"] = strconv.Itoa(s.Page)
	}
	return params
}

// Decode rebuilds a state from URL parameters. The input is untrusted:
// unknown keys are ignored, non-filterable fields are ignored, a malformed
// page falls back to 1, and malformed sort tokens are dropped one by one
// while the rest of the list survives.
func Decode(params map[string]string, fields []Field, reg *filter.Registry) State {
	s := New()
	for _, f := range fields {
		if !f.Filterable {
			continue
		}
		key := f.Path.URLSafe()
		var raw string
		var present bool
		switch f.Kind {
		case filter.NumberRange, filter.DateRange:
			raw, present = filter.MergeRangeParams(params, key)
		default:
			raw, present = params[key]
		}
		if !present {
			continue
		}
		v, ok := filter.Decode(reg, f.Kind, f.Options, raw)
		if !ok {
			continue
		}
		s.Filters[f.Path.String()] = v
	}
	s.Sort = decodeSort(params["sort"], fields)
	s.Page = decodePage(params["page"])
	return s
}

func decodePage(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("state: malformed page %q, using page 1", raw)
		return 1
	}
	if n < 1 {
		return 1
	}
	return n
}

func decodeSort(raw string, fields []Field) []SortEntry {
	if raw == "" {
		return nil
	}
	var entries []SortEntry
	for _, tok := range strings.Split(raw, ",") {
		if tok == "" {
			continue
		}
		desc := strings.HasPrefix(tok, "-")
		name := strings.TrimPrefix(tok, "-")
		path, err := fieldpath.FromURLSafe(name)
		if err != nil {
			log.Warnf("state: dropping malformed sort token %q: %v", tok, err)
			continue
		}
		if !sortable(fields, path) {
			log.Warnf("state: dropping sort token %q: field is not sortable", tok)
			continue
		}
		entries = append(entries, SortEntry{Field: path, Desc: desc})
	}
	return entries
}

func sortable(fields []Field, path fieldpath.FieldPath) bool {
	for _, f := range fields {
		if f.Sortable && f.Path.Equal(path) {
			return true
		}
	}
	return false
}
