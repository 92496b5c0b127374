package domain

// MemberStatus is a chat membership status carried by a status-transition
// update. Values mirror the platform's wire strings.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusBanned        MemberStatus = "kicked"
)

// Member identifies the user a membership event is about.
type Member struct {
	ID          int64
	DisplayName string
	Username    string // without the @ prefix; empty when the user has none
}

// MembershipEvent is an ephemeral status transition for one user in one
// chat. It is never persisted.
type MembershipEvent struct {
	ChatID    int64
	ChatTitle string
	User      Member
	OldStatus MemberStatus
	NewStatus MemberStatus
}

// IsLeave reports whether the event is an actionable departure: a member or
// restricted user transitioned to left. Everything else is discarded
// without side effects.
func (e MembershipEvent) IsLeave() bool {
	if e.NewStatus != StatusLeft {
		return false
	}
	return e.OldStatus == StatusMember || e.OldStatus == StatusRestricted
}
