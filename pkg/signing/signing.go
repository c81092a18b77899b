// Package signing defines the code-signing verdict boundary. The installer
// core only consumes verdicts; it never computes platform trust itself. A
// platform integration supplies a Verifier, and environments without one use
// Unavailable.
package signing

// Status is the trust verdict for a signed file.
type Status string

const (
	// StatusValid means the file carries a trusted signature.
	StatusValid Status = "valid"
	// StatusInvalid means the signature does not match the file.
	StatusInvalid Status = "invalid"
	// StatusUnsigned means the file carries no signature at all.
	StatusUnsigned Status = "unsigned"
	// StatusRevoked means the signing certificate has been revoked.
	StatusRevoked Status = "revoked"
	// StatusExpired means the signing certificate has expired.
	StatusExpired Status = "expired"
	// StatusUntrusted means the certificate chain does not lead to a trusted root.
	StatusUntrusted Status = "untrusted"
)

// Verdict is the outcome of a platform code-signing check.
type Verdict struct {
	Status      Status
	Certificate string // subject of the signing certificate, when available
	Message     string // platform-provided detail for non-valid verdicts
}

// Trusted reports whether the verdict allows execution without caveats.
func (v Verdict) Trusted() bool {
	return v.Status == StatusValid
}

// Verifier produces code-signing verdicts for installer payloads.
type Verifier interface {
	VerifySignature(path string) (Verdict, error)
}

// Unavailable is the Verifier for platforms without a code-signing
// capability. Every file is reported as unsigned.
type Unavailable struct{}

// VerifySignature always returns an unsigned verdict.
func (Unavailable) VerifySignature(string) (Verdict, error) {
	return Verdict{Status: StatusUnsigned, Message: "code-signing verification is not available on this platform"}, nil
}
