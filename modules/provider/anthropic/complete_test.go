package anthropic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/witxhhaven/fig-design-assistant/internal/convo"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
)

func newTestProvider(baseURL string) *Anthropic {
	a := &Anthropic{config: Config{APIKey: "sk-test", BaseURL: baseURL}}
	a.config.defaults()
	return a
}

func userRequest(text string) provider.Request {
	return provider.Request{
		System:  "You are a design assistant.",
		History: []convo.Turn{{Role: convo.RoleUser, Blocks: []convo.ContentBlock{convo.NewTextBlock(text)}}},
	}
}

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_123",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "{\"message\":\"Done.\"}"}],
			"model": "claude-sonnet-4-5-20250929",
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	a := newTestProvider(srv.URL)

	text, err := a.Complete(context.Background(), userRequest("Hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"message":"Done."}` {
		t.Errorf("unexpected response text: %q", text)
	}
}

func TestComplete_NoCredential(t *testing.T) {
	a := &Anthropic{}
	a.config.defaults()
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := a.Complete(context.Background(), userRequest("Hello"))
	if !errors.Is(err, provider.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestComplete_Auth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), userRequest("Hello"))
	if !errors.Is(err, provider.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestComplete_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), userRequest("Hello"))
	if !errors.Is(err, provider.ErrRateLimit) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
}

func TestComplete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Complete(context.Background(), userRequest("Hello"))
	if !errors.Is(err, provider.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

// staticCreds is a fixed-key credential source.
type staticCreds struct{ key string }

func (s staticCreds) Credential(context.Context) (string, error) { return s.key, nil }

func TestCredentialPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		creds   provider.CredentialSource
		cfgKey  string
		envKey  string
		want    string
		wantErr error
	}{
		{"runtime source wins", staticCreds{key: "sk-runtime"}, "sk-config", "sk-env", "sk-runtime", nil},
		{"empty source falls back to config", staticCreds{}, "sk-config", "sk-env", "sk-config", nil},
		{"config falls back to env", nil, "", "sk-env", "sk-env", nil},
		{"nothing configured", nil, "", "", "", provider.ErrNoCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", tt.envKey)

			a := &Anthropic{creds: tt.creds, config: Config{APIKey: tt.cfgKey}}
			key, err := a.credential(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if key != tt.want {
				t.Errorf("key = %q, want %q", key, tt.want)
			}
		})
	}
}
