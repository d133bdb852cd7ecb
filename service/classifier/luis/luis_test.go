package luis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const predictionJSON = `{
  "query": "book a flight to Paris",
  "prediction": {
    "topIntent": "Confirm",
    "intents": {"Confirm": {"score": 0.91}, "None": {"score": 0.04}},
    "entities": {
      "To": [["Paris"]],
      "From": ["Seattle"],
      "$instance": {"To": [{"text": "Paris"}]}
    }
  }
}`

func TestService_Configured(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
		expect bool
	}{
		{name: "complete", config: Config{Endpoint: "http://x", AppID: "app", Key: "k"}, expect: true},
		{name: "missing key", config: Config{Endpoint: "http://x", AppID: "app"}},
		{name: "missing app", config: Config{Endpoint: "http://x", Key: "k"}},
		{name: "missing endpoint", config: Config{AppID: "app", Key: "k"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, err := New(context.Background(), tc.config)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, srv.Configured())
		})
	}
}

func TestService_Classify(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(predictionJSON))
	}))
	defer server.Close()

	srv, err := New(context.Background(), Config{Endpoint: server.URL + "/", AppID: "app-1", Key: "secret"})
	require.NoError(t, err)
	result, err := srv.Classify(context.Background(), "book a flight to Paris")
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "/luis/prediction/v3.0/apps/app-1/slots/production/predict", captured.URL.Path)
	assert.Equal(t, "book a flight to Paris", captured.URL.Query().Get("query"))
	assert.Equal(t, "secret", captured.Header.Get(keyHeader))

	assert.Equal(t, "Confirm", result.TopIntent())
	assert.InDelta(t, 0.91, result.Confidence, 1e-9)
	assert.Len(t, result.Intents, 2)
	to, ok := result.Entity("To")
	assert.True(t, ok)
	assert.Equal(t, "Paris", to)
	from, ok := result.Entity("From")
	assert.True(t, ok)
	assert.Equal(t, "Seattle", from)
	_, ok = result.Entities[instanceKey]
	assert.False(t, ok)
}

func TestService_Classify_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"invalid key"}}`, wantErr: true},
		{name: "invalid json", status: http.StatusOK, body: `{`, wantErr: true},
		{name: "missing top intent", status: http.StatusOK, body: `{"prediction":{"intents":{"Cancel":{"score":0.7},"None":{"score":0.2}}}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()
			srv, err := New(context.Background(), Config{Endpoint: server.URL, AppID: "a", Key: "k"})
			require.NoError(t, err)
			result, err := srv.Classify(context.Background(), "x")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Cancel", result.TopIntent())
		})
	}
}

func TestService_Classify_NotConfigured(t *testing.T) {
	srv, err := New(context.Background(), Config{})
	require.NoError(t, err)
	result, err := srv.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, result.Unconfigured)
	assert.Equal(t, Name, srv.Name())
}

func TestService_Classify_Deadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(predictionJSON))
	}))
	defer server.Close()

	testCases := []struct {
		name    string
		timeout time.Duration
		ctxTTL  time.Duration
		wantErr bool
	}{
		{name: "caller without deadline"},
		{name: "caller deadline", ctxTTL: 50 * time.Millisecond, wantErr: true},
		{name: "configured timeout", timeout: 50 * time.Millisecond, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, err := New(context.Background(), Config{Endpoint: server.URL, AppID: "a", Key: "k", Timeout: tc.timeout})
			require.NoError(t, err)
			assert.Equal(t, tc.timeout, srv.httpClient.Timeout)
			ctx := context.Background()
			if tc.ctxTTL > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tc.ctxTTL)
				defer cancel()
			}
			result, err := srv.Classify(ctx, "book a flight")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Confirm", result.TopIntent())
		})
	}
}
