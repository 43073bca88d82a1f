package config

import "strings"

// OidcConfig describes the upstream identity provider. When GetIssuerURL is
// set the provider's endpoints are discovered at startup; otherwise the
// explicit authorization/token URLs are used as-is.
type OidcConfig interface {
	GetIssuerURL() string
	GetAuthorizationURL() string
	GetTokenURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetCallbackPath() string
}

type Oidc struct{}

var _ OidcConfig = Oidc{}

func (Oidc) GetIssuerURL() string {
	return GetEnv("OIDC_ISSUER_URL", "")
}

func (Oidc) GetAuthorizationURL() string {
	return GetEnv("OIDC_AUTHORIZATION_URL", "https://idp.example.com/oauth2/authorize")
}

func (Oidc) GetTokenURL() string {
	return GetEnv("OIDC_TOKEN_URL", "https://idp.example.com/oauth2/token")
}

func (Oidc) GetClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "portal-bff")
}

func (Oidc) GetClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Oidc) GetRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "http://localhost:8080/login/oauth2/code/hsid")
}

func (Oidc) GetScopes() []string {
	scopes := GetEnv("OIDC_SCOPES", "openid,profile,email")
	return strings.Split(scopes, ",")
}

// GetCallbackPath is the path the classifier forwards stray provider
// callbacks to. It must match a registered callback route.
func (Oidc) GetCallbackPath() string {
	return GetEnv("OIDC_CALLBACK_PATH", "/login/oauth2/code/hsid")
}
