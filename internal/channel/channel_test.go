package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCodes(t *testing.T) {
	tests := []struct {
		code int
		want ErrorKind
	}{
		{20003, KindAuthFailure},
		{20429, KindRateLimited},
		{21211, KindInvalidDestination},
		{21610, KindUnauthorizedDestination},
		{30001, KindQueueOverflow},
		{99999, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, NewError(tt.code, "boom").Kind)
		})
	}
}

func TestClassifyForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, Classify(errors.New("some transport error")))
	assert.Equal(t, KindRateLimited, Classify(fmt.Errorf("wrapped: %w", NewError(20429, "slow down"))))
}

func TestGatewaySendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234567", r.Form.Get("To"))
		assert.Equal(t, "+15550001111", r.Form.Get("From"))
		fmt.Fprint(w, `{"sid": "SM123"}`)
	}))
	defer srv.Close()

	g := NewGateway("AC1", "token", "+15550001111", srv.URL, zerolog.Nop())
	id, err := g.Send(context.Background(), "+15551234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "SM123", id)
}

func TestGatewaySendClassifiesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": 21211, "message": "invalid 'To' number"}`)
	}))
	defer srv.Close()

	g := NewGateway("AC1", "token", "+15550001111", srv.URL, zerolog.Nop())
	_, err := g.Send(context.Background(), "not-a-number", "hello")
	require.Error(t, err)
	assert.Equal(t, KindInvalidDestination, Classify(err))
}

func TestGatewaySendAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "authenticate"}`)
	}))
	defer srv.Close()

	g := NewGateway("AC1", "bad-token", "+15550001111", srv.URL, zerolog.Nop())
	_, err := g.Send(context.Background(), "+15551234567", "hello")
	require.Error(t, err)
	assert.Equal(t, KindAuthFailure, Classify(err))
}

func TestSimulatedNeverFailsAtZeroRate(t *testing.T) {
	s := NewSimulated(0, nil)
	id, err := s.Send(context.Background(), "+15551234567", "hello")
	require.NoError(t, err)
	assert.Contains(t, id, "sim-")
}
