package identity

// Identity holds the claims decoded from a verified ID token. Immutable once
// derived.
type Identity struct {
	SubjectID   string `json:"subjectId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Unknown is the sentinel identity substituted when an ID token cannot be
// decoded structurally. A session is still created so the login flow never
// fails opaquely on a malformed token payload.
func Unknown() Identity {
	return Identity{
		SubjectID:   "unknown",
		Email:       "unknown@example.com",
		DisplayName: "Unknown User",
	}
}

// DelegatePermission is a single permission record granted to a
// representative over a managed member.
type DelegatePermission struct {
	PermissionType string `json:"permissionType"`
	Status         string `json:"status"`
}

// EnrichedIdentity is an Identity augmented with business attributes fetched
// from internal services: a persona tag and, for representatives, the set of
// members they act on behalf of.
type EnrichedIdentity struct {
	Identity
	Persona        Persona                         `json:"persona"`
	EnterpriseID   string                          `json:"enterpriseId,omitempty"`
	ManagedMembers map[string][]DelegatePermission `json:"managedMembers,omitempty"`
}

// Degraded returns the baseline enrichment for an identity: persona self with
// no delegate data. Used whenever the enrichment pipeline cannot complete.
func Degraded(id Identity) EnrichedIdentity {
	return EnrichedIdentity{
		Identity:       id,
		Persona:        PersonaSelf,
		ManagedMembers: map[string][]DelegatePermission{},
	}
}
