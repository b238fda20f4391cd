package webhookutils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"github.com/prreview/internal/apperrors"
	"github.com/prreview/internal/config"
)

// SignaturePrefix precedes the hex digest in X-Hub-Signature-256.
const SignaturePrefix = "sha256="

// Verifier authenticates webhook deliveries with a shared secret.
//
// A Verifier built from an empty secret runs in open mode and accepts every
// request. Open mode exists for local development; running it in production
// lets anyone trigger reviews and post comments.
type Verifier struct {
	secret []byte
	mode   config.WebhookMode
}

// NewVerifier returns a Verifier for the configured secret. Open mode is
// logged at WARN so it cannot be enabled silently.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		log.Warn().
			Str("header", HeaderSignature).
			Msg("webhook secret not configured: signature verification is DISABLED (open mode), do not run like this in production")
		return &Verifier{mode: config.ModeOpen}
	}
	return &Verifier{secret: []byte(secret), mode: config.ModeEnforced}
}

// Mode reports whether the verifier enforces signatures.
func (v *Verifier) Mode() config.WebhookMode {
	return v.mode
}

// Verify checks the presented signature against the HMAC-SHA256 of body.
// It returns nil on success and an authentication AppError otherwise.
func (v *Verifier) Verify(body []byte, signature string, present bool) error {
	if v.mode == config.ModeOpen {
		log.Warn().Msg("accepting unauthenticated webhook delivery (open mode)")
		return nil
	}

	if !present {
		return apperrors.Authentication("missing signature header")
	}

	expected := Sign(v.secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.Authentication("signature mismatch")
	}
	return nil
}

// Sign returns the X-Hub-Signature-256 value for body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
