package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aponysus/reprise/policy"
)

// HTTPSource fetches policies from a control-plane endpoint as JSON.
//
// It requests GET {baseURL}/policies/{namespace.name} and decodes the body
// into an EffectivePolicy. 404 maps to ErrPolicyNotFound; transport errors
// map to ErrProviderUnavailable.
type HTTPSource struct {
	client  *http.Client
	baseURL string
}

// NewHTTPSource creates an HTTPSource. A nil client uses a client with a
// 10s timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetPolicy implements Source.
func (s *HTTPSource) GetPolicy(ctx context.Context, key policy.TaskKey) (policy.EffectivePolicy, error) {
	endpoint := s.baseURL + "/policies/" + url.PathEscape(key.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return policy.EffectivePolicy{}, fmt.Errorf("%w: %v", ErrPolicyFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return policy.EffectivePolicy{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() {
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return policy.EffectivePolicy{}, ErrPolicyNotFound
	case resp.StatusCode != http.StatusOK:
		return policy.EffectivePolicy{}, fmt.Errorf("%w: status %d", ErrPolicyFetchFailed, resp.StatusCode)
	}

	var pol policy.EffectivePolicy
	if err := json.NewDecoder(resp.Body).Decode(&pol); err != nil {
		return policy.EffectivePolicy{}, fmt.Errorf("%w: %v", ErrPolicyFetchFailed, err)
	}

	pol.Key = key
	pol.Meta.Source = policy.PolicySourceRemote
	return pol, nil
}
