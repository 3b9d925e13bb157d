package fieldpath

import "fmt"

// ParseError describes a field-path syntax error with its position in the
// input. Field paths arrive from untrusted configuration and untrusted URLs,
// so parse failures are reported, never repaired or panicked on.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid field path %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// Parse parses a field-path expression into its canonical form.
//
// Grammar: identifiers are [A-Za-z_][A-Za-z0-9_]*; '.' separates relationship
// steps; '[:name]' groups denote embedded traversal; the two may be freely
// mixed ("a.b[:c][:d]"). The final component is always the leaf attribute.
//
// The double underscore is reserved for the URL-safe embed delimiter, so an
// identifier may not contain "__" or end with '_'.
func Parse(raw string) (FieldPath, error) {
	p := &parser{input: []rune(raw), raw: raw}
	return p.parse()
}

type parser struct {
	input []rune
	raw   string
	pos   int
}

func (p *parser) parse() (FieldPath, error) {
	if len(p.input) == 0 {
		return FieldPath{}, p.errorf(0, "empty path")
	}

	var segments []Segment
	pending, err := p.scanIdent("path")
	if err != nil {
		return FieldPath{}, err
	}

	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '.':
			p.pos++
			segments = append(segments, Relationship{Name: pending})
			pending, err = p.scanIdent("after '.'")
			if err != nil {
				return FieldPath{}, err
			}

		case '[':
			start := p.pos
			p.pos++
			if p.pos >= len(p.input) || p.input[p.pos] != ':' {
				return FieldPath{}, p.errorf(start, "missing ':' after '['")
			}
			p.pos++
			segments = append(segments, Embedded{Name: pending})
			pending, err = p.scanIdent("in '[:...]' group")
			if err != nil {
				return FieldPath{}, err
			}
			if p.pos >= len(p.input) || p.input[p.pos] != ']' {
				return FieldPath{}, p.errorf(start, "unclosed '[:' group")
			}
			p.pos++

		default:
			return FieldPath{}, p.errorf(p.pos, fmt.Sprintf("unexpected character %q", p.input[p.pos]))
		}
	}

	return FieldPath{Segments: segments, Leaf: pending}, nil
}

func (p *parser) scanIdent(where string) (string, error) {
	start := p.pos
	if p.pos >= len(p.input) {
		return "", p.errorf(start, "expected identifier "+where)
	}
	if !isIdentStart(p.input[p.pos]) {
		if p.input[p.pos] == ']' {
			return "", p.errorf(start, "empty '[:]' body")
		}
		return "", p.errorf(start, fmt.Sprintf("illegal character %q %s", p.input[p.pos], where))
	}
	p.pos++
	for p.pos < len(p.input) && isIdentPart(p.input[p.pos]) {
		p.pos++
	}
	name := string(p.input[start:p.pos])
	if err := checkReservedUnderscores(name); err != "" {
		return "", p.errorf(start, err)
	}
	return name, nil
}

func (p *parser) errorf(pos int, msg string) *ParseError {
	return &ParseError{Input: p.raw, Pos: pos, Msg: msg}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// checkReservedUnderscores enforces the URL-safe delimiter reservation.
// Returns a non-empty message when the name is invalid.
func checkReservedUnderscores(name string) string {
	for i := 1; i < len(name); i++ {
		if name[i] == '_' && name[i-1] == '_' {
			return "identifier must not contain reserved '__'"
		}
	}
	if name[len(name)-1] == '_' {
		return "identifier must not end with '_'"
	}
	return ""
}

// ValidName reports whether name is acceptable as a path component:
// [A-Za-z_][A-Za-z0-9_]* with no "__" run and no trailing '_'. Schema loaders
// use it to refuse attribute names that could never be addressed by a path.
func ValidName(name string) bool {
	return validIdent(name)
}

// validIdent reports whether name is acceptable as a path component. Used by
// the URL-safe decoder, which bypasses the character-walking parser.
func validIdent(name string) bool {
	if name == "" || !isIdentStart(rune(name[0])) {
		return false
	}
	for _, ch := range name[1:] {
		if !isIdentPart(ch) {
			return false
		}
	}
	return checkReservedUnderscores(name) == ""
}
