// Package webhook verifies and applies identity-provider webhooks signed
// with Svix.
package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/julianstephens/goalkeeper/internal/constants"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	secretPrefix = "whsec_"
)

var (
	ErrMissingHeaders   = errors.New("missing svix headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("webhook secret not configured")
)

type Verifier struct {
	wh        *svix.Webhook
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier accepts a "whsec_<base64>" secret. A secret that svix cannot
// decode is used as raw key bytes.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNotConfigured
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		wh, err = svix.NewWebhookRaw([]byte(strings.TrimPrefix(secret, secretPrefix)))
		if err != nil {
			return nil, fmt.Errorf("webhook secret: %w", err)
		}
	}
	return &Verifier{wh: wh, tolerance: constants.WebhookTolerance, now: time.Now}, nil
}

// Sign returns the signature header value for a payload.
func (v *Verifier) Sign(id string, ts time.Time, body []byte) (string, error) {
	return v.wh.Sign(id, ts, body)
}

// Verify checks the signature headers against body. The timestamp must be
// within the tolerance of now in either direction.
func (v *Verifier) Verify(h http.Header, body []byte) error {
	id, ts, sigs := h.Get(HeaderID), h.Get(HeaderTimestamp), h.Get(HeaderSignature)
	if id == "" || ts == "" || sigs == "" {
		return ErrMissingHeaders
	}

	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	age := v.now().Sub(time.Unix(secs, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	if err := v.wh.VerifyIgnoringTimestamp(body, h); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
