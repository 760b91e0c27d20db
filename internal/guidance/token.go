package guidance

import (
	"net/http"
	"net/url"
	"os"
	"strings"
)

// TokenSource yields the token used to authenticate a guidance call, or an
// empty string when this source has nothing to offer.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// ChainTokens returns the first non-empty token from an ordered list of
// sources. Callers list sources in priority order, e.g. embedded form token,
// then deploy metadata, then a cookie-stored token.
func ChainTokens(sources ...TokenSource) TokenSource {
	return TokenFunc(func() string {
		for _, source := range sources {
			if source == nil {
				continue
			}
			if token := strings.TrimSpace(source.Token()); token != "" {
				return token
			}
		}
		return ""
	})
}

// StaticToken always yields the given token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func() string { return token })
}

// EnvToken reads the token from the named environment variable at call time.
func EnvToken(key string) TokenSource {
	return TokenFunc(func() string {
		if key == "" {
			return ""
		}
		return os.Getenv(key)
	})
}

// CookieToken looks the named cookie up in a jar, scoped to the guidance
// endpoint.
func CookieToken(jar http.CookieJar, endpoint *url.URL, name string) TokenSource {
	return TokenFunc(func() string {
		if jar == nil || endpoint == nil || name == "" {
			return ""
		}
		for _, cookie := range jar.Cookies(endpoint) {
			if cookie.Name == name {
				return cookie.Value
			}
		}
		return ""
	})
}
