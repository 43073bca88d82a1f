package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultServiceTimeout = 5 * time.Second

// Enricher augments an authenticated identity with business attributes.
// Implementations must be best-effort: enrichment failure never blocks
// authentication, so Enrich has no error return.
type Enricher interface {
	Enrich(ctx context.Context, id Identity) EnrichedIdentity
}

// userProfile is the profile service's classification of a subject.
type userProfile struct {
	MemberType   string `json:"memberType"`
	EnterpriseID string `json:"enterpriseId"`
}

// memberTypeRepresentative is the profile-service code for users who hold
// delegate permissions over other members.
const memberTypeRepresentative = "PR"

// ServiceEnricher calls the user-profile service and, for representatives,
// the delegate-permission service. The delegate lookup depends on the profile
// result so the two calls are sequential.
type ServiceEnricher struct {
	client             *http.Client
	userServiceURL     string
	delegateServiceURL string
	timeout            time.Duration
}

// ServiceEnricherOption modifies a ServiceEnricher.
type ServiceEnricherOption func(*ServiceEnricher)

// WithHTTPClient sets the HTTP client used for outbound calls (primarily for testing).
func WithHTTPClient(client *http.Client) ServiceEnricherOption {
	return func(e *ServiceEnricher) {
		e.client = client
	}
}

// WithTimeout bounds each outbound lookup.
func WithTimeout(timeout time.Duration) ServiceEnricherOption {
	return func(e *ServiceEnricher) {
		e.timeout = timeout
	}
}

// NewServiceEnricher creates an enricher backed by the internal user-profile
// and delegate-permission services.
func NewServiceEnricher(userServiceURL, delegateServiceURL string, options ...ServiceEnricherOption) *ServiceEnricher {
	e := &ServiceEnricher{
		userServiceURL:     userServiceURL,
		delegateServiceURL: delegateServiceURL,
		timeout:            defaultServiceTimeout,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: e.timeout}
	}
	return e
}

// Enrich resolves the subject's persona. Any failure from either lookup is
// absorbed locally and the degraded baseline (persona self, no delegate data)
// is returned instead.
func (e *ServiceEnricher) Enrich(ctx context.Context, id Identity) EnrichedIdentity {
	profile, err := e.fetchProfile(ctx, id.SubjectID)
	if err != nil {
		log.Warn().Err(err).Str("subject", id.SubjectID).Msg("profile lookup failed, falling back to self persona")
		return Degraded(id)
	}

	if profile.MemberType != memberTypeRepresentative {
		return EnrichedIdentity{
			Identity:       id,
			Persona:        PersonaSelf,
			EnterpriseID:   profile.EnterpriseID,
			ManagedMembers: map[string][]DelegatePermission{},
		}
	}

	members, err := e.fetchManagedMembers(ctx, profile.EnterpriseID)
	if err != nil {
		log.Warn().Err(err).Str("enterpriseID", profile.EnterpriseID).Msg("delegate lookup failed, falling back to self persona")
		return Degraded(id)
	}

	return EnrichedIdentity{
		Identity:       id,
		Persona:        PersonaRepresentative,
		EnterpriseID:   profile.EnterpriseID,
		ManagedMembers: members,
	}
}

func (e *ServiceEnricher) fetchProfile(ctx context.Context, subjectID string) (*userProfile, error) {
	var profile userProfile
	err := e.postJSON(ctx, e.userServiceURL+"/user-info", map[string]string{"hsidUuid": subjectID}, &profile)
	if err != nil {
		return nil, errors.Wrap(err, "[ServiceEnricher.fetchProfile] user-info")
	}
	return &profile, nil
}

func (e *ServiceEnricher) fetchManagedMembers(ctx context.Context, enterpriseID string) (map[string][]DelegatePermission, error) {
	members := map[string][]DelegatePermission{}
	err := e.postJSON(ctx, e.delegateServiceURL+"/managed-members", map[string]string{"enterpriseId": enterpriseID}, &members)
	if err != nil {
		return nil, errors.Wrap(err, "[ServiceEnricher.fetchManagedMembers] managed-members")
	}
	return members, nil
}

func (e *ServiceEnricher) postJSON(ctx context.Context, url string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// StaticEnricher returns a fixed enrichment for every identity. Used in
// tests and local development when the business services are unavailable.
type StaticEnricher struct {
	Persona Persona
}

// Enrich implements Enricher.
func (s StaticEnricher) Enrich(_ context.Context, id Identity) EnrichedIdentity {
	enriched := Degraded(id)
	if s.Persona != "" {
		enriched.Persona = s.Persona
	}
	return enriched
}
