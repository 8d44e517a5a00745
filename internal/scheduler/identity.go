package scheduler

import "context"

// StaticIdentity resolves every call to one fixed owner. The CLI and tests
// use it; a real deployment swaps in the auth collaborator.
type StaticIdentity struct {
	OwnerID string
}

func (s StaticIdentity) CurrentOwner(context.Context) (string, error) {
	return s.OwnerID, nil
}
