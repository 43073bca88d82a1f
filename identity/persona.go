package identity

// Persona is a coarse-grained role tag, distinct from authentication
// identity: whether the user acts for themselves or as a delegate.
type Persona string

const (
	PersonaSelf           Persona = "self"
	PersonaRepresentative Persona = "representative"

	// PersonaNone marks the absence of an authenticated principal in a
	// denial decision.
	PersonaNone Persona = ""
)

// Decision is the outcome of a persona authorization check.
type Decision struct {
	Allowed          bool
	RequiredPersonas []Persona
	ActualPersona    Persona
}

// CheckPersona evaluates whether the principal's persona is one of the
// allowed values. A nil principal denies with ActualPersona none. The check
// must be resolved before the guarded operation performs any observable work.
func CheckPersona(principal *EnrichedIdentity, allowed []Persona) Decision {
	if principal == nil {
		return Decision{Allowed: false, RequiredPersonas: allowed, ActualPersona: PersonaNone}
	}
	for _, p := range allowed {
		if principal.Persona == p {
			return Decision{Allowed: true, RequiredPersonas: allowed, ActualPersona: principal.Persona}
		}
	}
	return Decision{Allowed: false, RequiredPersonas: allowed, ActualPersona: principal.Persona}
}
