package packet

import "unicode/utf8"

// DecodeUTF8String decodes b as an MQTT UTF-8 encoded string.
//
// The bytes must be well-formed UTF-8 [MQTT-1.5.3-1] and the text must not
// contain U+0000 [MQTT-1.5.3-2], control characters, surrogates or Unicode
// non-characters. The sequence EF BB BF is U+FEFF wherever it appears and is
// kept in the result [MQTT-1.5.3-3].
//
// Errors match ErrMalformedUTF8.
func DecodeUTF8String(b []byte) (string, error) {
	// utf8.Valid rejects overlong forms, truncated sequences, stray
	// continuation bytes, encoded surrogates and anything above U+10FFFF.
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8Sequence
	}

	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if reason := disallowedReason(r); reason != "" {
			return "", &CodePointError{CodePoint: r, Offset: i, Reason: reason}
		}
		i += size
	}

	return string(b), nil
}

// ValidCodePoint reports whether r may appear in an MQTT UTF-8 string.
func ValidCodePoint(r rune) bool {
	return disallowedReason(r) == ""
}

func disallowedReason(r rune) string {
	switch {
	case r == 0x0000:
		return "null character"
	case r >= 0xD800 && r <= 0xDFFF:
		return "surrogate"
	case r >= 0x0001 && r <= 0x001F, r >= 0x007F && r <= 0x009F:
		return "control character"
	case r >= 0xFDD0 && r <= 0xFDEF:
		return "non-character"
	case r&0xFFFE == 0xFFFE && r <= 0x10FFFF:
		// U+xxFFFE and U+xxFFFF in all 17 planes
		return "non-character"
	}
	return ""
}
