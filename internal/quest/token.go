package quest

import (
	"strings"
	"unicode"
)

// NormalizeToken turns a raw QR payload into the canonical token form:
// control characters stripped, whitespace runs collapsed to single spaces,
// surrounding whitespace trimmed, case folded. Station tokens are stored
// already normalized; scanned payloads go through the same rules so the
// comparison is byte equality.
func NormalizeToken(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	space := false
	for _, r := range raw {
		switch {
		// Tabs and newlines are both control and space; they must collapse
		// like spaces, so the space check comes first.
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteRune(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// QRReason enumerates why a scanned payload was rejected.
type QRReason string

const (
	QRMalformed QRReason = "malformed"
	QRMismatch  QRReason = "mismatch"
)

// QRResult is the outcome of a token comparison. Token holds the
// normalized form of the scanned payload when one could be derived.
type QRResult struct {
	OK     bool
	Token  string
	Reason QRReason
}

// QRValidator compares scanned payloads against a station's expected
// token. MinLen/MaxLen bound the normalized token length.
type QRValidator struct {
	MinLen int
	MaxLen int
}

// Validate normalizes payload and compares it to expected. An empty or
// out-of-band normalization is malformed; anything else either matches or
// mismatches — the payload structure is never interpreted further.
func (v QRValidator) Validate(expected, payload string) QRResult {
	token := NormalizeToken(payload)
	if token == "" || len(token) < v.MinLen || (v.MaxLen > 0 && len(token) > v.MaxLen) {
		return QRResult{Token: token, Reason: QRMalformed}
	}
	if token != NormalizeToken(expected) {
		return QRResult{Token: token, Reason: QRMismatch}
	}
	return QRResult{OK: true, Token: token}
}
