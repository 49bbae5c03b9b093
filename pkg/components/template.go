package components

import (
	"fmt"
	"strings"
)

// segment is either literal text or a {variable} reference.
type segment struct {
	text     string
	variable bool
}

// parseTemplate splits s into literal and {variable} segments.
// "{{" and "}}" are literal braces.
func parseTemplate(s string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			name := strings.TrimSpace(s[i+1 : i+1+end])
			if !validVariable(name) {
				return nil, fmt.Errorf("invalid variable name %q", name)
			}
			flush()
			segs = append(segs, segment{text: name, variable: true})
			i += end + 1
		case ch == '}':
			return nil, fmt.Errorf("single '}' at offset %d", i)
		default:
			lit.WriteByte(ch)
		}
	}
	flush()
	return segs, nil
}

func validVariable(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// variables returns the distinct variable names of segs in first-seen order.
func variables(segs []segment) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range segs {
		if s.variable && !seen[s.text] {
			seen[s.text] = true
			out = append(out, s.text)
		}
	}
	return out
}

// render substitutes variables through lookup. Variables lookup does not
// know are written back verbatim.
func render(segs []segment, lookup func(string) (string, bool)) string {
	var b strings.Builder
	for _, s := range segs {
		if !s.variable {
			b.WriteString(s.text)
			continue
		}
		if v, ok := lookup(s.text); ok {
			b.WriteString(v)
		} else {
			b.WriteString("{" + s.text + "}")
		}
	}
	return b.String()
}

// formatData renders a Data record through a template such as "{text}".
func formatData(tmpl string, d interface{ Get(string) (any, bool) }) string {
	segs, err := parseTemplate(tmpl)
	if err != nil {
		return tmpl
	}
	return render(segs, func(key string) (string, bool) {
		v, ok := d.Get(key)
		if !ok {
			return "", false
		}
		return fmt.Sprint(v), true
	})
}
