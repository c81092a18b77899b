// Package verify checks installer payloads before anything executes them:
// content hash first, then the optional HMAC signature, then the optional
// platform code-signing verdict. Checks short-circuit on the first failure
// and a fully successful call has no side effects.
package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/glorpus-work/instill/pkg/errors"
	"github.com/glorpus-work/instill/pkg/model"
	"github.com/glorpus-work/instill/pkg/signing"
	"github.com/rs/zerolog"
)

// HashMismatchError is returned when a payload's SHA-256 digest does not
// match the catalog fingerprint.
type HashMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// Unwrap ties hash mismatches to the verification category.
func (e *HashMismatchError) Unwrap() error { return errors.ErrVerification }

// Options configure a Verifier.
type Options struct {
	// RequireCodeSigning upgrades an "unsigned" code-signing verdict from a
	// warning to a fatal failure. It has no effect when Signer is nil.
	RequireCodeSigning bool
	// Signer is the platform code-signing capability. Nil disables the
	// code-signing check entirely.
	Signer signing.Verifier
}

// Verifier validates downloaded payloads against catalog metadata.
type Verifier struct {
	opts Options
	log  zerolog.Logger
}

// New creates a Verifier.
func New(opts Options, log zerolog.Logger) *Verifier {
	return &Verifier{opts: opts, log: log}
}

// Verify runs the ordered integrity and authenticity checks for the payload
// at path. The first failing check is returned and later checks do not run.
func (v *Verifier) Verify(app model.AppMetadata, path string) error {
	digest, err := fileSHA256(path)
	if err != nil {
		return errors.Wrapf(errors.ErrVerification, "failed to hash %s: %v", path, err)
	}
	if !strings.EqualFold(hex.EncodeToString(digest), app.SHA256) {
		return &HashMismatchError{Path: path, Expected: strings.ToLower(app.SHA256), Actual: hex.EncodeToString(digest)}
	}

	if app.HasSignature() {
		if err := v.verifyHMAC(app, digest); err != nil {
			return err
		}
	}

	if v.opts.Signer != nil {
		if err := v.verifyCodeSigning(app, path); err != nil {
			return err
		}
	}
	return nil
}

// verifyHMAC computes HMAC-SHA256 over the payload's SHA-256 digest using
// the decoded signature key and compares it in constant time against the
// decoded signature.
func (v *Verifier) verifyHMAC(app model.AppMetadata, digest []byte) error {
	key, err := base64.StdEncoding.DecodeString(app.SignatureKey)
	if err != nil {
		return errors.Wrapf(errors.ErrVerification, "app %q: signature_key is not valid base64: %v", app.ID, err)
	}
	want, err := base64.StdEncoding.DecodeString(app.Signature)
	if err != nil {
		return errors.Wrapf(errors.ErrVerification, "app %q: signature is not valid base64: %v", app.ID, err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(digest)
	if !hmac.Equal(mac.Sum(nil), want) {
		return errors.Wrapf(errors.ErrVerification, "app %q: HMAC signature mismatch", app.ID)
	}
	return nil
}

func (v *Verifier) verifyCodeSigning(app model.AppMetadata, path string) error {
	verdict, err := v.opts.Signer.VerifySignature(path)
	if err != nil {
		return errors.Wrapf(errors.ErrVerification, "app %q: code-signing check failed: %v", app.ID, err)
	}
	if verdict.Trusted() {
		return nil
	}
	if verdict.Status == signing.StatusUnsigned {
		if v.opts.RequireCodeSigning {
			return errors.Wrapf(errors.ErrVerification, "app %q: payload is unsigned and code signing is required", app.ID)
		}
		v.log.Warn().Str("app", app.ID).Str("path", path).Msg("payload is not code-signed")
		return nil
	}
	return errors.Wrapf(errors.ErrVerification, "app %q: code signature %s: %s", app.ID, verdict.Status, verdict.Message)
}

func fileSHA256(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
