package usecase

// State is the lifecycle state of a Session.
type State int

const (
	// StateLocked means no master key or decrypted content is held.
	StateLocked State = iota
	// StateUnlocking means a credential is being checked against the slots.
	StateUnlocking
	// StateUnlocked means the master key and the decrypted vault are held.
	StateUnlocked
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocking:
		return "unlocking"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}
