package config

import "time"

// ServicesConfig locates the internal business services used to enrich an
// authenticated identity.
type ServicesConfig interface {
	GetUserServiceBaseURL() string
	GetDelegateServiceBaseURL() string
	GetServiceTimeout() time.Duration
}

type Services struct{}

var _ ServicesConfig = Services{}

func (Services) GetUserServiceBaseURL() string {
	return GetEnv("USER_SERVICE_BASE_URL", "http://user-service:8080")
}

func (Services) GetDelegateServiceBaseURL() string {
	return GetEnv("PSN_SERVICE_BASE_URL", "http://psn-service:8080")
}

func (Services) GetServiceTimeout() time.Duration {
	return 5 * time.Second
}
