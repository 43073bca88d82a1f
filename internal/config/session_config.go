package config

import (
	"strconv"
	"time"
)

type SessionConfig interface {
	GetSessionDuration() time.Duration
	GetStateTTL() time.Duration
	GetSessionBackend() string
	GetRedisURL() string
}

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionDuration is the fallback session lifetime used when the token
// response carries no expires_in.
func (Session) GetSessionDuration() time.Duration {
	minutes, err := strconv.Atoi(GetEnv("SESSION_DURATION_MINUTES", "30"))
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// GetStateTTL bounds how long a pending state -> verifier association is
// honoured between login initiation and callback.
func (Session) GetStateTTL() time.Duration {
	return 5 * time.Minute
}

// GetSessionBackend selects the session store implementation: "memory" or "redis".
func (Session) GetSessionBackend() string {
	return GetEnv("SESSION_BACKEND", "memory")
}

func (Session) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}
