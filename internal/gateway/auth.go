package gateway

import (
	"context"
	"strings"

	"github.com/stocklens/stocklens/config"
)

// Session is what authentication yields: the wb-token scraped from the site
// plus the cookie jar of the authenticated browser session.
type Session struct {
	Token   string
	Cookies map[string]string
}

// Authenticator acquires a session against the remote system. The production
// implementation drives a headless browser and lives outside this module.
type Authenticator interface {
	Authenticate(ctx context.Context) (Session, error)
}

// EnvAuthenticator builds a session from pre-provisioned credentials, for
// headless runs where the token and cookies were captured elsewhere.
type EnvAuthenticator struct {
	cfg config.GatewayConfig
}

func NewEnvAuthenticator(cfg config.GatewayConfig) *EnvAuthenticator {
	return &EnvAuthenticator{cfg: cfg}
}

func (a *EnvAuthenticator) Authenticate(_ context.Context) (Session, error) {
	if a.cfg.Token == "" {
		return Session{}, ErrMissingCredentials
	}
	return Session{
		Token:   a.cfg.Token,
		Cookies: parseCookiePairs(a.cfg.Cookies),
	}, nil
}

func parseCookiePairs(raw string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return cookies
}
