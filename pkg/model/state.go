package model

// SessionState is the coarse lifecycle state of a client session.
type SessionState string

const (
	SessionStateAnonymous      SessionState = "ANONYMOUS"
	SessionStateAuthenticating SessionState = "AUTHENTICATING"
	SessionStateNoProfile      SessionState = "NO_PROFILE"
	SessionStateWithProfile    SessionState = "WITH_PROFILE"
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	return string(s)
}

// IsAuthenticated returns true once a token has been validated.
func (s SessionState) IsAuthenticated() bool {
	return s == SessionStateNoProfile || s == SessionStateWithProfile
}

// ValidSessionTransitions defines the allowed state transitions for a Session.
// Every state may also move to ANONYMOUS (logout, token rejection).
var ValidSessionTransitions = map[SessionState][]SessionState{
	SessionStateAnonymous:      {SessionStateAuthenticating},
	SessionStateAuthenticating: {SessionStateNoProfile, SessionStateWithProfile},
	SessionStateNoProfile:      {SessionStateWithProfile},
	SessionStateWithProfile:    {SessionStateWithProfile, SessionStateNoProfile},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	if next == SessionStateAnonymous {
		return true
	}
	for _, allowed := range ValidSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
