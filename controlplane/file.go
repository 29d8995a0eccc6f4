package controlplane

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aponysus/reprise/policy"
)

// FileProvider is a PolicyProvider backed by a YAML policy document.
//
// Document shape:
//
//	policies:
//	  agent.research:
//	    max_attempts: 5
//	    initial_delay: 2s
//	    max_delay: 60s
//	    backoff_multiplier: 2
//	    jitter: none
//	    classifier: state
//	    budget:
//	      name: agents
//	      cost: 1
//	    breaker: agents
//	default:
//	  max_attempts: 3
//
// Policies are parsed and normalized once at load time.
type FileProvider struct {
	policies   map[policy.TaskKey]policy.EffectivePolicy
	defaultPol *policy.EffectivePolicy
}

type fileDocument struct {
	Policies map[string]filePolicy `yaml:"policies"`
	Default  *filePolicy           `yaml:"default"`
}

type filePolicy struct {
	ID                string        `yaml:"id"`
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialDelay      yamlDuration  `yaml:"initial_delay"`
	MaxDelay          yamlDuration  `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	Jitter            string        `yaml:"jitter"`
	TimeoutPerAttempt yamlDuration  `yaml:"timeout_per_attempt"`
	OverallTimeout    yamlDuration  `yaml:"overall_timeout"`
	ClassifierName    string        `yaml:"classifier"`
	Budget            fileBudgetRef `yaml:"budget"`
	Breaker           string        `yaml:"breaker"`
}

type fileBudgetRef struct {
	Name string `yaml:"name"`
	Cost int    `yaml:"cost"`
}

// yamlDuration parses YAML scalars like "2s" or "1m30s" into a duration.
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = yamlDuration(parsed)
	return nil
}

// LoadFileProvider reads and parses a YAML policy document from path.
func LoadFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return ParseFileProvider(data)
}

// ParseFileProvider parses a YAML policy document.
func ParseFileProvider(data []byte) (*FileProvider, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPolicyFetchFailed, err)
	}

	p := &FileProvider{
		policies: make(map[policy.TaskKey]policy.EffectivePolicy, len(doc.Policies)),
	}

	for rawKey, fp := range doc.Policies {
		key := policy.ParseKey(rawKey)
		pol, err := fp.toEffective(key)
		if err != nil {
			return nil, fmt.Errorf("policy %q: %w", rawKey, err)
		}
		p.policies[key] = pol
	}

	if doc.Default != nil {
		pol, err := doc.Default.toEffective(policy.TaskKey{})
		if err != nil {
			return nil, fmt.Errorf("default policy: %w", err)
		}
		p.defaultPol = &pol
	}

	return p, nil
}

func (fp filePolicy) toEffective(key policy.TaskKey) (policy.EffectivePolicy, error) {
	pol := policy.EffectivePolicy{
		Key: key,
		ID:  fp.ID,
		Retry: policy.Policy{
			MaxAttempts:       fp.MaxAttempts,
			InitialDelay:      time.Duration(fp.InitialDelay),
			MaxDelay:          time.Duration(fp.MaxDelay),
			BackoffMultiplier: fp.BackoffMultiplier,
			Jitter:            policy.JitterKind(fp.Jitter),
			TimeoutPerAttempt: time.Duration(fp.TimeoutPerAttempt),
			OverallTimeout:    time.Duration(fp.OverallTimeout),
			ClassifierName:    fp.ClassifierName,
			Budget: policy.BudgetRef{
				Name: fp.Budget.Name,
				Cost: fp.Budget.Cost,
			},
			BreakerName: fp.Breaker,
		},
		Meta: policy.Metadata{Source: policy.PolicySourceFile},
	}
	return pol.Normalize()
}

// GetEffectivePolicy implements PolicyProvider.
func (p *FileProvider) GetEffectivePolicy(_ context.Context, key policy.TaskKey) (policy.EffectivePolicy, error) {
	if p == nil {
		return policy.EffectivePolicy{}, ErrProviderUnavailable
	}
	if pol, ok := p.policies[key]; ok {
		return pol, nil
	}
	if p.defaultPol != nil {
		pol := *p.defaultPol
		pol.Key = key
		return pol, nil
	}
	return policy.EffectivePolicy{}, ErrPolicyNotFound
}

// Keys returns the task keys the document defines policies for.
func (p *FileProvider) Keys() []policy.TaskKey {
	if p == nil {
		return nil
	}
	keys := make([]policy.TaskKey, 0, len(p.policies))
	for k := range p.policies {
		keys = append(keys, k)
	}
	return keys
}
