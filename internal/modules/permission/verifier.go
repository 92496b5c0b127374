package permission

import (
	"context"

	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// MemberStatus is a chat membership status as reported by the platform.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusBanned        MemberStatus = "kicked"
)

// Membership is the slice of a chat-member record the verifier cares about.
type Membership struct {
	Status             MemberStatus
	CanRestrictMembers bool
}

// MembershipLookup is the platform boundary for membership queries.
// Implementations must translate "chat not found" / "user not found" /
// forbidden responses into errors.ErrChatOrAccountNotFound.
type MembershipLookup interface {
	// SelfMembership returns the bot's own membership in chatID.
	SelfMembership(ctx context.Context, chatID int64) (Membership, error)

	// UserMembership returns userID's membership in chatID.
	UserMembership(ctx context.Context, chatID int64, userID int64) (Membership, error)
}

// Verifier checks whether the bot currently holds administrator status with
// the ban capability in a chat. Every call performs a live lookup: admin
// rights can be revoked externally at any time, so both activation-time and
// ban-time checks must see the current state.
type Verifier struct {
	lookup MembershipLookup
}

// New creates a permission verifier backed by the given lookup.
func New(lookup MembershipLookup) *Verifier {
	return &Verifier{lookup: lookup}
}

// Verify returns nil only when the bot is an administrator with the
// 'Ban Users' permission in chatID. Failures are classified as
// errors.ErrNotAdmin, errors.ErrMissingBanCapability,
// errors.ErrChatOrAccountNotFound, or a wrapped transient lookup error.
func (v *Verifier) Verify(ctx context.Context, chatID int64) error {
	member, err := v.lookup.SelfMembership(ctx, chatID)
	if err != nil {
		if err == errors.ErrChatOrAccountNotFound {
			return err
		}
		return oops.With("chat_id", chatID, "context", "membership lookup failed").Wrap(err)
	}

	if member.Status != StatusAdministrator {
		return errors.ErrNotAdmin
	}

	if !member.CanRestrictMembers {
		return errors.ErrMissingBanCapability
	}

	return nil
}

// IsJoined reports whether userID is an active member of chatID
// (member, administrator, or creator). Lookup failures count as not joined,
// matching the join-verification gate's behavior.
func (v *Verifier) IsJoined(ctx context.Context, chatID int64, userID int64) bool {
	member, err := v.lookup.UserMembership(ctx, chatID, userID)
	if err != nil {
		return false
	}

	switch member.Status {
	case StatusMember, StatusAdministrator, StatusCreator:
		return true
	default:
		return false
	}
}

// IsChatAdmin reports whether userID administers chatID. Used to restrict
// the group toggle to group admins.
func (v *Verifier) IsChatAdmin(ctx context.Context, chatID int64, userID int64) (bool, error) {
	member, err := v.lookup.UserMembership(ctx, chatID, userID)
	if err != nil {
		return false, oops.With("chat_id", chatID, "user_id", userID, "context", "admin check failed").Wrap(err)
	}

	return member.Status == StatusAdministrator || member.Status == StatusCreator, nil
}
