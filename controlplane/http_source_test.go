package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aponysus/reprise/policy"
)

func TestHTTPSource_GetPolicy(t *testing.T) {
	key := policy.TaskKey{Namespace: "agent", Name: "research"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/policies/agent.research", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(policy.EffectivePolicy{
			ID:    "v3",
			Retry: policy.Policy{MaxAttempts: 4},
		})
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil)
	pol, err := src.GetPolicy(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, "v3", pol.ID)
	require.Equal(t, key, pol.Key)
	require.Equal(t, policy.PolicySourceRemote, pol.Meta.Source)
}

func TestHTTPSource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil)
	_, err := src.GetPolicy(context.Background(), policy.TaskKey{Name: "missing"})
	require.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestHTTPSource_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil)
	_, err := src.GetPolicy(context.Background(), policy.TaskKey{Name: "x"})
	require.ErrorIs(t, err, ErrPolicyFetchFailed)
}

func TestHTTPSource_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // immediately, to force a connection error

	src := NewHTTPSource(srv.URL, nil)
	_, err := src.GetPolicy(context.Background(), policy.TaskKey{Name: "x"})
	require.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestHTTPSource_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil)
	_, err := src.GetPolicy(context.Background(), policy.TaskKey{Name: "x"})
	require.ErrorIs(t, err, ErrPolicyFetchFailed)
}

func TestHTTPSource_WithRemoteProvider(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(policy.EffectivePolicy{Retry: policy.Policy{MaxAttempts: 2}})
	}))
	defer srv.Close()

	p := NewRemoteProvider(NewHTTPSource(srv.URL, nil))
	key := policy.TaskKey{Namespace: "a", Name: "b"}

	for i := 0; i < 3; i++ {
		pol, err := p.GetEffectivePolicy(context.Background(), key)
		require.NoError(t, err)
		require.Equal(t, 2, pol.Retry.MaxAttempts)
	}
	require.Equal(t, 1, calls)
}
