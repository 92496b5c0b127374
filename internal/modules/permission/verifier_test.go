package permission

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

type fakeLookup struct {
	self     map[int64]Membership
	selfErr  error
	users    map[int64]Membership
	usersErr error
}

func (f *fakeLookup) SelfMembership(ctx context.Context, chatID int64) (Membership, error) {
	if f.selfErr != nil {
		return Membership{}, f.selfErr
	}
	return f.self[chatID], nil
}

func (f *fakeLookup) UserMembership(ctx context.Context, chatID int64, userID int64) (Membership, error) {
	if f.usersErr != nil {
		return Membership{}, f.usersErr
	}
	return f.users[userID], nil
}

func TestVerify(t *testing.T) {
	const chatID = -100555

	tests := []struct {
		name    string
		lookup  *fakeLookup
		wantErr error
	}{
		{
			name: "admin with ban rights",
			lookup: &fakeLookup{self: map[int64]Membership{
				chatID: {Status: StatusAdministrator, CanRestrictMembers: true},
			}},
			wantErr: nil,
		},
		{
			name: "plain member",
			lookup: &fakeLookup{self: map[int64]Membership{
				chatID: {Status: StatusMember},
			}},
			wantErr: errors.ErrNotAdmin,
		},
		{
			name: "not in chat",
			lookup: &fakeLookup{self: map[int64]Membership{
				chatID: {Status: StatusLeft},
			}},
			wantErr: errors.ErrNotAdmin,
		},
		{
			name: "admin without ban rights",
			lookup: &fakeLookup{self: map[int64]Membership{
				chatID: {Status: StatusAdministrator, CanRestrictMembers: false},
			}},
			wantErr: errors.ErrMissingBanCapability,
		},
		{
			name:    "chat not found",
			lookup:  &fakeLookup{selfErr: errors.ErrChatOrAccountNotFound},
			wantErr: errors.ErrChatOrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.lookup)
			err := v.Verify(context.Background(), chatID)
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyWrapsTransientError(t *testing.T) {
	transient := stderrors.New("connection reset")
	v := New(&fakeLookup{selfErr: transient})

	err := v.Verify(context.Background(), -100555)
	if err == nil {
		t.Fatal("Verify() = nil, want wrapped transient error")
	}
	if !stderrors.Is(err, transient) {
		t.Errorf("Verify() error = %v, does not wrap %v", err, transient)
	}
}

func TestIsJoined(t *testing.T) {
	const chatID, userID = -100555, int64(42)

	tests := []struct {
		name   string
		lookup *fakeLookup
		want   bool
	}{
		{"member", &fakeLookup{users: map[int64]Membership{userID: {Status: StatusMember}}}, true},
		{"administrator", &fakeLookup{users: map[int64]Membership{userID: {Status: StatusAdministrator}}}, true},
		{"creator", &fakeLookup{users: map[int64]Membership{userID: {Status: StatusCreator}}}, true},
		{"left", &fakeLookup{users: map[int64]Membership{userID: {Status: StatusLeft}}}, false},
		{"kicked", &fakeLookup{users: map[int64]Membership{userID: {Status: StatusBanned}}}, false},
		{"restricted", &fakeLookup{users: map[int64]Membership{userID: {Status: StatusRestricted}}}, false},
		{"lookup failure counts as not joined", &fakeLookup{usersErr: stderrors.New("timeout")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.lookup)
			if got := v.IsJoined(context.Background(), chatID, userID); got != tt.want {
				t.Errorf("IsJoined() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsChatAdmin(t *testing.T) {
	const chatID, userID = -100555, int64(42)

	tests := []struct {
		name   string
		status MemberStatus
		want   bool
	}{
		{"administrator", StatusAdministrator, true},
		{"creator", StatusCreator, true},
		{"member", StatusMember, false},
		{"left", StatusLeft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(&fakeLookup{users: map[int64]Membership{userID: {Status: tt.status}}})
			got, err := v.IsChatAdmin(context.Background(), chatID, userID)
			if err != nil {
				t.Fatalf("IsChatAdmin() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsChatAdmin() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("lookup failure returns error", func(t *testing.T) {
		v := New(&fakeLookup{usersErr: stderrors.New("timeout")})
		if _, err := v.IsChatAdmin(context.Background(), chatID, userID); err == nil {
			t.Error("IsChatAdmin() = nil error, want lookup failure")
		}
	})
}
