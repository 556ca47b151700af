package xmltree

import "strings"

// Sanitize removes the defects real-world transmission files carry
// before they reach the parser: injected control characters are
// stripped, and a stray unescaped "&" is treated as literal text by
// rewriting it to its entity. Well-formed entities are left alone.
func Sanitize(raw []byte) []byte {
	var b strings.Builder
	b.Grow(len(raw))

	s := string(raw)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '&':
			if entityAt(s[i:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case c < 0x20 && c != '\t' && c != '\n' && c != '\r':
			// dropped
		case c == 0x7F:
			// dropped
		default:
			b.WriteByte(c)
		}
	}
	return []byte(b.String())
}

var entities = []string{"&amp;", "&lt;", "&gt;", "&quot;", "&apos;"}

func entityAt(s string) bool {
	for _, e := range entities {
		if strings.HasPrefix(s, e) {
			return true
		}
	}
	return false
}
