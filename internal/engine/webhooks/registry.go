package webhooks

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"regexp"

	"hookd/internal/pkg/errors"
	"hookd/internal/platform/models"
	"hookd/internal/platform/repositories"
)

// eventNamePattern is the grammar for subscribable event names, e.g.
// "community.created" or "post.deleted".
var eventNamePattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// ValidEventName reports whether name matches the event grammar.
func ValidEventName(name string) bool {
	return eventNamePattern.MatchString(name)
}

// Registry owns webhook endpoint registration: field validation, target
// validation, and server-side secret generation.
type Registry struct {
	repo      *repositories.EndpointRepository
	validator *TargetValidator
}

func NewRegistry(repo *repositories.EndpointRepository, validator *TargetValidator) *Registry {
	return &Registry{repo: repo, validator: validator}
}

// CreateAttrs are the caller-supplied fields for a new endpoint. The secret is
// never caller-supplied.
type CreateAttrs struct {
	URL           string
	Name          string
	Description   string
	Events        []string
	ApplicationID string
}

// UpdateAttrs are the mutable endpoint fields. Nil means "leave unchanged".
type UpdateAttrs struct {
	URL           *string
	Name          *string
	Description   *string
	Events        []string
	Active        *bool
	ApplicationID *string
}

// Create validates attrs, generates the endpoint secret, and persists.
// The returned endpoint carries the secret; this is the only time it is
// exposed to the caller.
func (r *Registry) Create(attrs CreateAttrs, createdBy string) (*models.Endpoint, error) {
	if attrs.Name == "" {
		return nil, errors.NewValidationError("name", errors.CodeRequired, "name is required")
	}
	if err := r.validateURL(attrs.URL); err != nil {
		return nil, err
	}
	if err := validateEvents(attrs.Events); err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	endpoint := &models.Endpoint{
		URL:           attrs.URL,
		Name:          attrs.Name,
		Description:   attrs.Description,
		Events:        normalizeEvents(attrs.Events),
		Active:        true,
		Secret:        secret,
		CreatedBy:     createdBy,
		ApplicationID: attrs.ApplicationID,
	}

	if err := r.repo.Create(endpoint); err != nil {
		return nil, err
	}
	return endpoint, nil
}

// Update applies attrs to an existing endpoint. Target validation re-runs only
// when the URL actually changes. The secret is never touched.
func (r *Registry) Update(endpoint *models.Endpoint, attrs UpdateAttrs) (*models.Endpoint, error) {
	if attrs.Name != nil {
		if *attrs.Name == "" {
			return nil, errors.NewValidationError("name", errors.CodeRequired, "name is required")
		}
		endpoint.Name = *attrs.Name
	}
	if attrs.Description != nil {
		endpoint.Description = *attrs.Description
	}
	if attrs.URL != nil && *attrs.URL != endpoint.URL {
		if err := r.validateURL(*attrs.URL); err != nil {
			return nil, err
		}
		endpoint.URL = *attrs.URL
	}
	if attrs.Events != nil {
		if err := validateEvents(attrs.Events); err != nil {
			return nil, err
		}
		endpoint.Events = normalizeEvents(attrs.Events)
	}
	if attrs.Active != nil {
		endpoint.Active = *attrs.Active
	}
	if attrs.ApplicationID != nil {
		endpoint.ApplicationID = *attrs.ApplicationID
	}

	if err := r.repo.Update(endpoint); err != nil {
		return nil, err
	}
	return endpoint, nil
}

func (r *Registry) validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.NewValidationError("url", errors.CodeRequired, "url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewValidationError("url", errors.CodeInvalidURL, "url must be a valid http or https URL")
	}
	if !r.validator.Validate(rawURL) {
		return errors.NewValidationError("url", errors.CodeInvalidURL, "url resolves to a private or reserved address")
	}
	return nil
}

func validateEvents(events []string) error {
	for _, ev := range events {
		if !ValidEventName(ev) {
			return errors.NewValidationError("events", errors.CodeInvalidEvent, "event names must match namespace.action, e.g. community.created")
		}
	}
	return nil
}

func normalizeEvents(events []string) []string {
	if events == nil {
		return []string{}
	}
	return events
}

// generateSecret returns 32 cryptographically random bytes as 64 hex chars.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
