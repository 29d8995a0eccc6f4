package controlplane

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aponysus/reprise/policy"
)

func TestPolicyCache_SetGet(t *testing.T) {
	key := policy.TaskKey{Name: "x"}
	c := NewPolicyCache()

	_, found, _ := c.Get(key)
	require.False(t, found)

	c.Set(key, policy.EffectivePolicy{ID: "v1"}, time.Minute)
	pol, found, negative := c.Get(key)
	require.True(t, found)
	require.False(t, negative)
	require.Equal(t, "v1", pol.ID)
}

func TestPolicyCache_TTLExpiry(t *testing.T) {
	key := policy.TaskKey{Name: "x"}
	now := time.Unix(1000, 0)
	c := NewPolicyCache()
	c.SetClock(func() time.Time { return now })

	c.Set(key, policy.EffectivePolicy{ID: "v1"}, time.Minute)

	now = now.Add(59 * time.Second)
	_, found, _ := c.Get(key)
	require.True(t, found)

	now = now.Add(2 * time.Second)
	_, found, _ = c.Get(key)
	require.False(t, found, "entry should expire after its TTL")
}

func TestPolicyCache_NegativeEntries(t *testing.T) {
	key := policy.TaskKey{Name: "x"}
	c := NewPolicyCache()

	c.SetMissing(key, time.Minute)
	_, found, negative := c.Get(key)
	require.True(t, found)
	require.True(t, negative)

	// A real entry replaces the negative one.
	c.Set(key, policy.EffectivePolicy{ID: "v1"}, time.Minute)
	_, found, negative = c.Get(key)
	require.True(t, found)
	require.False(t, negative)
}

func TestPolicyCache_Invalidate(t *testing.T) {
	key := policy.TaskKey{Name: "x"}
	c := NewPolicyCache()

	c.Set(key, policy.EffectivePolicy{ID: "v1"}, time.Minute)
	c.Invalidate(key)
	_, found, _ := c.Get(key)
	require.False(t, found)
}
