package config

type Config interface {
	EnvConfig
	OidcConfig
	SessionConfig
	ServicesConfig
	CorsConfig
}

type mainConfig struct {
	EnvVars
	Oidc
	Session
	Services
	Cors
}

func New() Config {
	return mainConfig{}
}
