package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/models"
)

var ErrInvalidPayload = errors.New("invalid webhook payload")

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

type UserData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
}

// Profile maps the user payload to a profile row.
func (u UserData) Profile(now time.Time) models.Profile {
	p := models.Profile{
		ID:        u.ID,
		FullName:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		AvatarURL: u.ImageURL,
		UpdatedAt: now,
	}
	if len(u.EmailAddresses) > 0 {
		p.Email = u.EmailAddresses[0].EmailAddress
	}
	return p
}

// ProfileStore is the storage the handler writes to.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p models.Profile) error
}

type Handler struct {
	verifier *Verifier
	profiles ProfileStore
	now      func() time.Time
}

// NewHandler returns a handler for the given secret. An empty secret yields a
// handler whose Handle always fails with ErrNotConfigured.
func NewHandler(secret string, profiles ProfileStore) *Handler {
	v, err := NewVerifier(secret)
	if err != nil {
		logger.Warn("Identity webhook disabled", "error", err)
	}
	return &Handler{verifier: v, profiles: profiles, now: time.Now}
}

// Handle verifies and applies one delivery, returning the event type. User
// created and updated events upsert a profile; other types are acknowledged
// without effect.
func (h *Handler) Handle(ctx context.Context, headers http.Header, body []byte) (string, error) {
	if h.verifier == nil {
		return "", ErrNotConfigured
	}
	if err := h.verifier.Verify(headers, body); err != nil {
		metrics.Get().WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return "", err
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		metrics.Get().WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch ev.Type {
	case EventUserCreated, EventUserUpdated:
		var user UserData
		if err := json.Unmarshal(ev.Data, &user); err != nil || user.ID == "" {
			metrics.Get().WebhookEvents.WithLabelValues(ev.Type, "rejected").Inc()
			return ev.Type, fmt.Errorf("%w: user data without id", ErrInvalidPayload)
		}
		if err := h.profiles.UpsertProfile(ctx, user.Profile(h.now())); err != nil {
			metrics.Get().WebhookEvents.WithLabelValues(ev.Type, "error").Inc()
			return ev.Type, fmt.Errorf("failed to upsert profile: %w", err)
		}
		logger.Info("Upserted profile from webhook", "type", ev.Type, "user", user.ID)
		metrics.Get().WebhookEvents.WithLabelValues(ev.Type, "applied").Inc()
	default:
		logger.Debug("Ignoring webhook event", "type", ev.Type)
		metrics.Get().WebhookEvents.WithLabelValues(ev.Type, "ignored").Inc()
	}
	return ev.Type, nil
}
