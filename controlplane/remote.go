package controlplane

import (
	"context"
	"errors"
	"time"

	"github.com/aponysus/reprise/policy"
)

// Source is the interface for fetching raw policy configuration.
type Source interface {
	// GetPolicy returns the policy for the given key.
	// If the policy is not found, it must return ErrPolicyNotFound.
	GetPolicy(ctx context.Context, key policy.TaskKey) (policy.EffectivePolicy, error)
}

// RemoteProvider is a PolicyProvider that fetches policies from a Source
// and caches them.
type RemoteProvider struct {
	source           Source
	cache            *PolicyCache
	cacheTTL         time.Duration
	negativeCacheTTL time.Duration
}

// RemoteProviderOption configures a RemoteProvider.
type RemoteProviderOption func(*RemoteProvider)

// WithCacheTTL sets the TTL for successful policy lookups. Default is 1 minute.
func WithCacheTTL(ttl time.Duration) RemoteProviderOption {
	return func(p *RemoteProvider) {
		p.cacheTTL = ttl
	}
}

// WithNegativeCacheTTL sets the TTL for missing policy lookups. Default is 10 seconds.
func WithNegativeCacheTTL(ttl time.Duration) RemoteProviderOption {
	return func(p *RemoteProvider) {
		p.negativeCacheTTL = ttl
	}
}

// NewRemoteProvider creates a new RemoteProvider.
func NewRemoteProvider(source Source, opts ...RemoteProviderOption) *RemoteProvider {
	p := &RemoteProvider{
		source:           source,
		cache:            NewPolicyCache(),
		cacheTTL:         1 * time.Minute,
		negativeCacheTTL: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetEffectivePolicy returns the policy for key, checking the cache first.
func (p *RemoteProvider) GetEffectivePolicy(ctx context.Context, key policy.TaskKey) (policy.EffectivePolicy, error) {
	pol, foundInCache, isNegative := p.cache.Get(key)
	if foundInCache {
		if isNegative {
			// Cached as missing. Return ErrPolicyNotFound so the
			// orchestrator can apply its missing-policy mode.
			return policy.EffectivePolicy{}, ErrPolicyNotFound
		}
		return pol, nil
	}

	pol, err := p.source.GetPolicy(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			p.cache.SetMissing(key, p.negativeCacheTTL)
			return policy.EffectivePolicy{}, ErrPolicyNotFound
		}
		return policy.EffectivePolicy{}, err
	}

	pol.Key = key
	if pol.Meta.Source == "" || pol.Meta.Source == policy.PolicySourceUnknown {
		pol.Meta.Source = policy.PolicySourceRemote
	}

	pol, err = pol.Normalize()
	if err != nil {
		return policy.EffectivePolicy{}, err
	}

	p.cache.Set(key, pol, p.cacheTTL)
	return pol, nil
}

// Invalidate drops the cached entry for key, forcing a refetch.
func (p *RemoteProvider) Invalidate(key policy.TaskKey) {
	p.cache.Invalidate(key)
}
