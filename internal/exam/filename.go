package exam

import "strings"

// Certificate filename template parts.
const (
	CertificatePrefix = "AML_CFT_Certificate_"
	CertificateExt    = ".pdf"
)

// Sanitize replaces every character outside [A-Za-z0-9] with '_'. Runs of
// replacements are kept, one '_' per replaced character.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CertificateFilename builds the suggested download name for a candidate.
func CertificateFilename(candidateName string) string {
	return CertificatePrefix + Sanitize(candidateName) + CertificateExt
}
