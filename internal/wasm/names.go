package wasm

import "strings"

// Ident renders name as a text-format identifier ($name). Characters outside
// the identifier alphabet are mapped to '_'.
func Ident(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)
	b.WriteByte('$')
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if !isIdChar(ch) {
			ch = '_'
		}
		b.WriteByte(ch)
	}
	if len(name) == 0 {
		b.WriteByte('_')
	}
	return b.String()
}

func isIdChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-./:<=>?@\\^_`|~", ch) >= 0
}
