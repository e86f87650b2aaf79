package inventory

import (
	"context"
	"fmt"
)

// =============================================================================
// CANCELLATION AUTHORITY
// =============================================================================
// A static actor-to-role lookup gates transit cancellation. Only Supervisor
// and QA roles may override an in-transit move. Role data is read-only here.

// CancellationAuthority authorizes transit overrides.
type CancellationAuthority struct {
	Roles RoleStore
}

// Authorize returns ErrUnauthorized unless the actor holds a role that may
// cancel transits. An unknown actor is treated the same as an unmatched role.
func (a *CancellationAuthority) Authorize(ctx context.Context, actorID string) error {
	role, err := a.Roles.GetRole(ctx, actorID)
	if err != nil {
		return err
	}
	if !role.CanCancelTransit() {
		return fmt.Errorf("%w: %s may not cancel transits", ErrUnauthorized, actorID)
	}
	return nil
}
