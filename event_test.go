package apiguard

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	Path string
}

func TestNewAPIKeyAuthenticatedPreservesReferences(t *testing.T) {
	key := &APIKey{ID: "k1", Owner: "alice"}
	req := &fakeRequest{Path: "/v1/resource"}

	e, err := NewAPIKeyAuthenticated(req, key)
	require.NoError(t, err)

	assert.Same(t, key, e.APIKey())
	got, ok := e.Request().(*fakeRequest)
	require.True(t, ok)
	assert.Same(t, req, got)
	assert.Equal(t, "k1", e.APIKey().ID)
	assert.Equal(t, "/v1/resource", got.Path)
	assert.True(t, e.HasRequest())
	assert.Equal(t, EventAPIKeyAuthenticated, e.EventType())
	assert.NotEmpty(t, e.EventID())
	assert.False(t, e.OccurredAt().IsZero())
}

func TestNewAPIKeyAuthenticatedAcceptsHTTPRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/resource", nil)

	e, err := NewAPIKeyAuthenticated(req, &APIKey{ID: "k1"})
	require.NoError(t, err)
	assert.Same(t, req, e.Request())
}

func TestNewAPIKeyAuthenticatedMissingArguments(t *testing.T) {
	var nilReq *fakeRequest
	var nilMap map[string]string

	tests := []struct {
		name    string
		request any
		key     *APIKey
		wantErr error
	}{
		{name: "nil request", request: nil, key: &APIKey{ID: "k1"}, wantErr: ErrMissingRequest},
		{name: "typed nil request", request: nilReq, key: &APIKey{ID: "k1"}, wantErr: ErrMissingRequest},
		{name: "nil map request", request: nilMap, key: &APIKey{ID: "k1"}, wantErr: ErrMissingRequest},
		{name: "nil key", request: &fakeRequest{}, key: nil, wantErr: ErrMissingAPIKey},
		{name: "both missing", request: nil, key: nil, wantErr: ErrMissingRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewAPIKeyAuthenticated(tt.request, tt.key)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, e)
		})
	}
}

func TestNewAPIKeyAuthenticatedValueRequest(t *testing.T) {
	e, err := NewAPIKeyAuthenticated(fakeRequest{Path: "/"}, &APIKey{ID: "k1"})
	require.NoError(t, err)
	assert.Equal(t, fakeRequest{Path: "/"}, e.Request())
}

func TestMustNewAPIKeyAuthenticatedPanicsOnMissingKey(t *testing.T) {
	assert.PanicsWithError(t, ErrMissingAPIKey.Error(), func() {
		MustNewAPIKeyAuthenticated(&fakeRequest{}, nil)
	})
	assert.NotPanics(t, func() {
		MustNewAPIKeyAuthenticated(&fakeRequest{}, &APIKey{ID: "k1"})
	})
}

func TestEventOptionsOverrideMetadata(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.FixedZone("x", 3600))

	e, err := NewAPIKeyAuthenticated(&fakeRequest{}, &APIKey{ID: "k1"},
		WithEventID("evt-1"),
		WithOccurredAt(at),
		nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "evt-1", e.EventID())
	assert.True(t, e.OccurredAt().Equal(at))
	assert.Equal(t, time.UTC, e.OccurredAt().Location())
}

func TestEventIDsAreUnique(t *testing.T) {
	key := &APIKey{ID: "k1"}
	a := MustNewAPIKeyAuthenticated(&fakeRequest{}, key)
	b := MustNewAPIKeyAuthenticated(&fakeRequest{}, key)
	assert.NotEqual(t, a.EventID(), b.EventID())
}
