package formatter

import (
	"strings"
)

const upperhex = "0123456789ABCDEF"

// ContentDisposition returns an attachment header value carrying filename as an RFC 5987 extended parameter:
//
//	attachment; filename*=UTF-8''<percent-encoded name>
func ContentDisposition(filename string) string {
	return "attachment; filename*=UTF-8''" + EncodeExtValue(filename)
}

// EncodeExtValue percent-encodes s as UTF-8 bytes, leaving only RFC 5987 attr-char unescaped.
func EncodeExtValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
