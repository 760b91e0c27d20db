package guidance

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
)

func TestChainTokensPriorityOrder(t *testing.T) {
	chain := ChainTokens(StaticToken(""), StaticToken("  "), StaticToken("second"), StaticToken("third"))

	if got := chain.Token(); got != "second" {
		t.Fatalf("expected first non-empty source to win, got %q", got)
	}
}

func TestChainTokensSkipsNilSources(t *testing.T) {
	chain := ChainTokens(nil, StaticToken("value"))

	if got := chain.Token(); got != "value" {
		t.Fatalf("got %q", got)
	}
}

func TestChainTokensEmpty(t *testing.T) {
	if got := ChainTokens().Token(); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestEnvToken(t *testing.T) {
	t.Setenv("UNIGUIDE_TEST_TOKEN", "from-env")

	if got := EnvToken("UNIGUIDE_TEST_TOKEN").Token(); got != "from-env" {
		t.Fatalf("got %q", got)
	}
	if got := EnvToken("").Token(); got != "" {
		t.Fatalf("empty key must yield empty token, got %q", got)
	}
	if got := EnvToken("UNIGUIDE_TEST_TOKEN_UNSET").Token(); got != "" {
		t.Fatalf("unset key must yield empty token, got %q", got)
	}
}

func TestCookieToken(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	endpoint, err := url.Parse("https://guidance.example.org/chatbot/api/message")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}

	jar.SetCookies(endpoint, []*http.Cookie{
		{Name: "csrftoken", Value: "cookie-value"},
		{Name: "other", Value: "irrelevant"},
	})

	source := CookieToken(jar, endpoint, "csrftoken")
	if got := source.Token(); got != "cookie-value" {
		t.Fatalf("got %q", got)
	}

	if got := CookieToken(jar, endpoint, "missing").Token(); got != "" {
		t.Fatalf("absent cookie must yield empty token, got %q", got)
	}
	if got := CookieToken(nil, endpoint, "csrftoken").Token(); got != "" {
		t.Fatalf("nil jar must yield empty token, got %q", got)
	}
}
