package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// SetupProviderMock creates a mock provider API server that answers every
// request with the given envelope body, mirroring the {data, error} shape
// the real provider API returns.
func SetupProviderMock(t *testing.T, data interface{}) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		envelope := map[string]interface{}{"data": data}
		json.NewEncoder(w).Encode(envelope)
	}))
	t.Cleanup(server.Close)
	return server
}

// SetupProviderErrorMock creates a mock provider API server that answers
// every request with a provider-side error envelope.
func SetupProviderErrorMock(t *testing.T, code, detail string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		envelope := map[string]interface{}{
			"error": map[string]interface{}{
				"code":   code,
				"detail": detail,
			},
		}
		json.NewEncoder(w).Encode(envelope)
	}))
	t.Cleanup(server.Close)
	return server
}

// SetupProviderStatusMock creates a mock provider API server that answers
// every request with the given HTTP status and an empty body, useful for
// exercising retry/transport-error paths.
func SetupProviderStatusMock(t *testing.T, status int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

// SetupReplyWebhookPayload builds a minimal reply-webhook delivery body for
// the given provider identifiers.
func SetupReplyWebhookPayload(providerIDs ...string) map[string]interface{} {
	attendees := make([]map[string]interface{}, len(providerIDs))
	for i, id := range providerIDs {
		attendees[i] = map[string]interface{}{"attendee_provider_id": id}
	}
	return map[string]interface{}{"attendees": attendees}
}
