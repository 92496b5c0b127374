package service

import (
	"context"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/permission"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/domain"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/repository"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// Service is the tenant registry: it owns all reads and writes of channel
// and group tenant records and enforces the activation invariant (banning
// may only be enabled while the bot verifiably holds ban rights).
type Service struct {
	repo     repository.Repository
	verifier *permission.Verifier
}

// New creates a tenant registry service.
func New(repo repository.Repository, verifier *permission.Verifier) *Service {
	return &Service{
		repo:     repo,
		verifier: verifier,
	}
}

// GetOrCreateChannelTenant returns the owner's record, creating an empty one
// (no target, banning disabled) on first access.
func (s *Service) GetOrCreateChannelTenant(ownerID int64) (*domain.ChannelTenant, error) {
	tenant, err := s.repo.GetChannelTenant(ownerID)
	if err == nil {
		return tenant, nil
	}
	if err != errors.ErrChannelTenantNotFound {
		return nil, err
	}

	return s.repo.UpdateChannelTenant(ownerID, func(t *domain.ChannelTenant) error {
		return nil
	})
}

// GetOrCreateGroupTenant returns the group's record, creating a disabled one
// on first access.
func (s *Service) GetOrCreateGroupTenant(chatID int64) (*domain.GroupTenant, error) {
	tenant, err := s.repo.GetGroupTenant(chatID)
	if err == nil {
		return tenant, nil
	}
	if err != errors.ErrGroupTenantNotFound {
		return nil, err
	}

	return s.repo.UpdateGroupTenant(chatID, func(t *domain.GroupTenant) error {
		return nil
	})
}

// SetChannelTarget installs the monitored channel on the owner's record.
// Configuration never touches BanningEnabled: configuring and activating are
// separate operator actions.
func (s *Service) SetChannelTarget(ownerID int64, chatID int64, title string) (*domain.ChannelTenant, error) {
	return s.repo.UpdateChannelTenant(ownerID, func(t *domain.ChannelTenant) error {
		t.MonitoredChannelID = chatID
		t.MonitoredChannelTitle = title
		return nil
	})
}

// ToggleChannelBan flips the owner's banning switch and returns the new
// state. Enabling requires a live permission check on the monitored channel
// at the moment of transition; the verifier's reason is returned unchanged
// on failure. Disabling is unconditional.
func (s *Service) ToggleChannelBan(ctx context.Context, ownerID int64) (bool, error) {
	tenant, err := s.GetOrCreateChannelTenant(ownerID)
	if err != nil {
		return false, err
	}

	if !tenant.HasTarget() {
		return false, errors.ErrNoTargetConfigured
	}

	if !tenant.BanningEnabled {
		if err := s.verifier.Verify(ctx, tenant.MonitoredChannelID); err != nil {
			return false, err
		}
	}

	updated, err := s.repo.UpdateChannelTenant(ownerID, func(t *domain.ChannelTenant) error {
		t.BanningEnabled = !t.BanningEnabled
		return nil
	})
	if err != nil {
		return false, err
	}

	return updated.BanningEnabled, nil
}

// ToggleGroupBan flips the group's banning switch, creating the record on
// first toggle. Enabling is gated on a live permission check in the group
// itself.
func (s *Service) ToggleGroupBan(ctx context.Context, chatID int64) (bool, error) {
	tenant, err := s.GetOrCreateGroupTenant(chatID)
	if err != nil {
		return false, err
	}

	if !tenant.BanningEnabled {
		if err := s.verifier.Verify(ctx, chatID); err != nil {
			return false, err
		}
	}

	updated, err := s.repo.UpdateGroupTenant(chatID, func(t *domain.GroupTenant) error {
		t.BanningEnabled = !t.BanningEnabled
		return nil
	})
	if err != nil {
		return false, err
	}

	return updated.BanningEnabled, nil
}

// FindChannelTenantsByTarget returns every channel tenant monitoring chatID
// with banning enabled. More than one owner may legitimately target the
// same channel; all of them get served.
func (s *Service) FindChannelTenantsByTarget(chatID int64) ([]*domain.ChannelTenant, error) {
	tenants, err := s.repo.ChannelTenantsByTarget(chatID)
	if err != nil {
		return nil, err
	}

	enabled := make([]*domain.ChannelTenant, 0, len(tenants))
	for _, t := range tenants {
		if t.BanningEnabled {
			enabled = append(enabled, t)
		}
	}

	return enabled, nil
}

// FindGroupTenant returns the group tenant for chatID if it exists and has
// banning enabled.
func (s *Service) FindGroupTenant(chatID int64) (*domain.GroupTenant, error) {
	tenant, err := s.repo.GetGroupTenant(chatID)
	if err != nil {
		return nil, err
	}

	if !tenant.BanningEnabled {
		return nil, errors.ErrGroupTenantNotFound
	}

	return tenant, nil
}

// SetChannelMenuMessage records the owner's most recent menu message id.
// Not authoritative state; only used to replace the previous menu.
func (s *Service) SetChannelMenuMessage(ownerID int64, messageID int) error {
	_, err := s.repo.UpdateChannelTenant(ownerID, func(t *domain.ChannelTenant) error {
		t.LastMenuMessageID = messageID
		return nil
	})
	return err
}

// SetGroupMenuMessage records the group's most recent menu message id.
func (s *Service) SetGroupMenuMessage(chatID int64, messageID int) error {
	_, err := s.repo.UpdateGroupTenant(chatID, func(t *domain.GroupTenant) error {
		t.LastMenuMessageID = messageID
		return nil
	})
	return err
}

// SetVerified marks whether the owner passed the required-channel join gate.
func (s *Service) SetVerified(ownerID int64, verified bool) error {
	_, err := s.repo.UpdateChannelTenant(ownerID, func(t *domain.ChannelTenant) error {
		t.Verified = verified
		return nil
	})
	return err
}

// Counts returns the number of channel and group tenants, used by the
// operational status endpoint.
func (s *Service) Counts() (channels int, groups int, err error) {
	channelTenants, err := s.repo.AllChannelTenants()
	if err != nil {
		return 0, 0, err
	}
	groupTenants, err := s.repo.AllGroupTenants()
	if err != nil {
		return 0, 0, err
	}

	return len(channelTenants), len(groupTenants), nil
}
