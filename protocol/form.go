package protocol

import "strings"

const upperHex = "0123456789ABCDEF"

// EncodeFormEntry percent-encodes a raw key=value pair for a
// application/x-www-form-urlencoded body. ASCII letters and digits are kept,
// as is the first '=' separating key from value; every other byte becomes
// %XX.
func EncodeFormEntry(entry string) string {
	var sb strings.Builder
	sb.Grow(len(entry) * 3)

	foundEqual := false
	for i := 0; i < len(entry); i++ {
		c := entry[i]
		switch {
		case isAlnum(c):
			sb.WriteByte(c)
		case c == '=' && !foundEqual:
			foundEqual = true
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte(upperHex[c>>4])
			sb.WriteByte(upperHex[c&0x0F])
		}
	}

	return sb.String()
}

func isAlnum(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}
