package guidance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hmawbi/uniguide/internal/config"
)

func testClient(t *testing.T, endpoint string, tokens TokenSource) *Client {
	t.Helper()
	return NewClient(config.GuidanceConfig{
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	}, tokens, nil)
}

func TestSendPostsMessageWithHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bot_response":"Hi there","is_urgent":false}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, StaticToken("tok-123"))

	resp, err := client.Send(context.Background(), "  Hello  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if resp.BotText != "Hi there" {
		t.Fatalf("unexpected bot text: %q", resp.BotText)
	}
	if gotBody["message"] != "Hello" {
		t.Fatalf("expected trimmed message in payload, got %q", gotBody["message"])
	}
	if got := gotHeaders.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type: %q", got)
	}
	if got := gotHeaders.Get("X-Requested-With"); got != "XMLHttpRequest" {
		t.Fatalf("unexpected X-Requested-With: %q", got)
	}
	if got := gotHeaders.Get("X-CSRFToken"); got != "tok-123" {
		t.Fatalf("unexpected token header: %q", got)
	}
}

func TestSendOmitsTokenHeaderWhenChainIsEmpty(t *testing.T) {
	var sawTokenHeader bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawTokenHeader = r.Header["X-Csrftoken"]
		w.Write([]byte(`{"bot_response":"ok"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, ChainTokens())

	if _, err := client.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sawTokenHeader {
		t.Fatal("token header must be absent when no source yields one")
	}
}

func TestSendDecodesFullResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"bot_response": "Seek help now",
			"is_urgent": true,
			"relevant_resources": [
				{"title": "Hotline", "description": "24/7 support", "url": "https://example.org"}
			]
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	resp, err := client.Send(context.Background(), "help")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !resp.IsUrgent {
		t.Fatal("expected urgent flag")
	}
	if len(resp.RelevantResources) != 1 || resp.RelevantResources[0].Title != "Hotline" {
		t.Fatalf("unexpected resources: %+v", resp.RelevantResources)
	}
}

func TestSendNonSuccessYieldsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream model offline"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.Send(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if apiErr.UserDetail() != "upstream model offline" {
		t.Fatalf("unexpected detail: %q", apiErr.UserDetail())
	}
}

func TestSendEmptyErrorBodyFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.Send(context.Background(), "Hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Detail != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("unexpected fallback detail: %q", apiErr.Detail)
	}
}

func TestSendTruncatesLongErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.Send(context.Background(), "Hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if len(apiErr.Detail) != 256 {
		t.Fatalf("expected 256-byte snippet, got %d bytes", len(apiErr.Detail))
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	client := testClient(t, "http://localhost:0", nil)

	if _, err := client.Send(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank message")
	}
}

func TestSendRejectsMissingEndpoint(t *testing.T) {
	client := testClient(t, "", nil)

	if _, err := client.Send(context.Background(), "Hello"); err == nil {
		t.Fatal("expected error when endpoint is unset")
	}
}

func TestSendMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	if _, err := client.Send(context.Background(), "Hello"); err == nil {
		t.Fatal("expected decode error")
	}
}
