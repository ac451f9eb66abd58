package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// authorize loads userID's membership of groupID from the current member
// table and checks its role against roles. With no roles any member passes.
//
// A missing membership, or a missing group, is ErrNotAMember. A member with
// the wrong role is ErrForbidden.
func authorize(ctx context.Context, tx storage.Tx, groupID, userID string, roles ...models.Role) (*models.Member, error) {
	member, err := tx.GetMemberByUser(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, err
	}

	if len(roles) > 0 && !slices.Contains(roles, member.Role) {
		return nil, fmt.Errorf("%w: requires role %v, have %s", ErrForbidden, roles, member.Role)
	}
	return member, nil
}
