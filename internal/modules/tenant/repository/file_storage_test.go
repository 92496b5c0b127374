package repository

import (
	stderrors "errors"
	"testing"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/domain"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

func newStorage(t *testing.T, basePath string) *FileStorage {
	t.Helper()
	s, err := NewFileStorage(basePath)
	if err != nil {
		t.Fatalf("NewFileStorage() error = %v", err)
	}
	return s
}

func setTarget(t *testing.T, s *FileStorage, ownerID, chatID int64) {
	t.Helper()
	_, err := s.UpdateChannelTenant(ownerID, func(tenant *domain.ChannelTenant) error {
		tenant.MonitoredChannelID = chatID
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateChannelTenant() error = %v", err)
	}
}

func TestGetChannelTenantNotFound(t *testing.T) {
	s := newStorage(t, t.TempDir())

	_, err := s.GetChannelTenant(1)
	if !stderrors.Is(err, errors.ErrChannelTenantNotFound) {
		t.Errorf("GetChannelTenant() error = %v, want %v", err, errors.ErrChannelTenantNotFound)
	}
}

func TestUpdateChannelTenantCreatesAndPersists(t *testing.T) {
	s := newStorage(t, t.TempDir())

	created, err := s.UpdateChannelTenant(7, func(tenant *domain.ChannelTenant) error {
		tenant.MonitoredChannelID = -100200
		tenant.MonitoredChannelTitle = "My Channel"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateChannelTenant() error = %v", err)
	}
	if created.OwnerID != 7 {
		t.Errorf("OwnerID = %d, want 7", created.OwnerID)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}

	got, err := s.GetChannelTenant(7)
	if err != nil {
		t.Fatalf("GetChannelTenant() error = %v", err)
	}
	if got.MonitoredChannelID != -100200 || got.MonitoredChannelTitle != "My Channel" {
		t.Errorf("persisted tenant = %+v, want target -100200 %q", got, "My Channel")
	}
}

func TestUpdateChannelTenantAbortsOnError(t *testing.T) {
	s := newStorage(t, t.TempDir())
	setTarget(t, s, 7, -100200)

	boom := stderrors.New("boom")
	_, err := s.UpdateChannelTenant(7, func(tenant *domain.ChannelTenant) error {
		tenant.MonitoredChannelID = -100999
		return boom
	})
	if !stderrors.Is(err, boom) {
		t.Fatalf("UpdateChannelTenant() error = %v, want %v", err, boom)
	}

	got, err := s.GetChannelTenant(7)
	if err != nil {
		t.Fatalf("GetChannelTenant() error = %v", err)
	}
	if got.MonitoredChannelID != -100200 {
		t.Errorf("aborted update changed target to %d, want -100200", got.MonitoredChannelID)
	}
	if tenants, _ := s.ChannelTenantsByTarget(-100999); len(tenants) != 0 {
		t.Errorf("aborted update leaked into index: %d tenants for -100999", len(tenants))
	}
}

func TestChannelTenantsByTarget(t *testing.T) {
	s := newStorage(t, t.TempDir())

	setTarget(t, s, 1, -100200)
	setTarget(t, s, 2, -100200)
	setTarget(t, s, 3, -100300)

	tenants, err := s.ChannelTenantsByTarget(-100200)
	if err != nil {
		t.Fatalf("ChannelTenantsByTarget() error = %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("got %d tenants for -100200, want 2", len(tenants))
	}

	tenants, err = s.ChannelTenantsByTarget(-100400)
	if err != nil {
		t.Fatalf("ChannelTenantsByTarget() error = %v", err)
	}
	if len(tenants) != 0 {
		t.Errorf("got %d tenants for unmonitored chat, want 0", len(tenants))
	}
}

func TestChannelTenantsByTargetAfterRetarget(t *testing.T) {
	s := newStorage(t, t.TempDir())

	setTarget(t, s, 1, -100200)
	setTarget(t, s, 1, -100300)

	if tenants, _ := s.ChannelTenantsByTarget(-100200); len(tenants) != 0 {
		t.Errorf("old target still indexed: %d tenants", len(tenants))
	}
	tenants, _ := s.ChannelTenantsByTarget(-100300)
	if len(tenants) != 1 || tenants[0].OwnerID != 1 {
		t.Errorf("new target not indexed: %+v", tenants)
	}
}

func TestIndexRebuiltOnRestart(t *testing.T) {
	dir := t.TempDir()

	s := newStorage(t, dir)
	setTarget(t, s, 1, -100200)
	setTarget(t, s, 2, -100200)

	// New storage over the same directory simulates a process restart.
	reopened := newStorage(t, dir)
	tenants, err := reopened.ChannelTenantsByTarget(-100200)
	if err != nil {
		t.Fatalf("ChannelTenantsByTarget() error = %v", err)
	}
	if len(tenants) != 2 {
		t.Errorf("rebuilt index found %d tenants, want 2", len(tenants))
	}
}

func TestGroupTenantLifecycle(t *testing.T) {
	s := newStorage(t, t.TempDir())

	if _, err := s.GetGroupTenant(-200100); !stderrors.Is(err, errors.ErrGroupTenantNotFound) {
		t.Errorf("GetGroupTenant() error = %v, want %v", err, errors.ErrGroupTenantNotFound)
	}

	created, err := s.UpdateGroupTenant(-200100, func(tenant *domain.GroupTenant) error {
		tenant.BanningEnabled = true
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateGroupTenant() error = %v", err)
	}
	if created.ChatID != -200100 || !created.BanningEnabled {
		t.Errorf("created group tenant = %+v", created)
	}

	got, err := s.GetGroupTenant(-200100)
	if err != nil {
		t.Fatalf("GetGroupTenant() error = %v", err)
	}
	if !got.BanningEnabled {
		t.Error("BanningEnabled not persisted")
	}
}

func TestCountsViaAll(t *testing.T) {
	s := newStorage(t, t.TempDir())

	setTarget(t, s, 1, -100200)
	setTarget(t, s, 2, -100300)
	if _, err := s.UpdateGroupTenant(-200100, func(*domain.GroupTenant) error { return nil }); err != nil {
		t.Fatalf("UpdateGroupTenant() error = %v", err)
	}

	channels, err := s.AllChannelTenants()
	if err != nil {
		t.Fatalf("AllChannelTenants() error = %v", err)
	}
	groups, err := s.AllGroupTenants()
	if err != nil {
		t.Fatalf("AllGroupTenants() error = %v", err)
	}
	if len(channels) != 2 || len(groups) != 1 {
		t.Errorf("got %d channel and %d group tenants, want 2 and 1", len(channels), len(groups))
	}
}
