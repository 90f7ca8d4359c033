package outbound

import "strings"

// MaxNameLength is the longest player name that fits an encoded name.
const MaxNameLength = 12

// EncodeName packs a player name into the base-37 long used by the friend,
// ignore and private message layouts. Letters are case-insensitive, digits
// are kept, and anything else becomes an underscore.
func EncodeName(name string) int64 {
	var v int64
	for i := 0; i < len(name) && i < MaxNameLength; i++ {
		ch := name[i]
		v *= 37
		switch {
		case ch >= 'A' && ch <= 'Z':
			v += int64(ch-'A') + 1
		case ch >= 'a' && ch <= 'z':
			v += int64(ch-'a') + 1
		case ch >= '0' && ch <= '9':
			v += int64(ch-'0') + 27
		}
	}
	for v != 0 && v%37 == 0 {
		v /= 37
	}
	return v
}

const nameAlphabet = "_abcdefghijklmnopqrstuvwxyz0123456789"

// DecodeName reverses EncodeName. Invalid values decode to "invalid_name".
func DecodeName(v int64) string {
	if v <= 0 {
		return "invalid_name"
	}
	var sb strings.Builder
	buf := make([]byte, 0, MaxNameLength)
	for v != 0 {
		buf = append(buf, nameAlphabet[v%37])
		v /= 37
	}
	if len(buf) > MaxNameLength {
		return "invalid_name"
	}
	for i := len(buf) - 1; i >= 0; i-- {
		sb.WriteByte(buf[i])
	}
	return sb.String()
}
