package repository

import (
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/domain"
)

// Repository defines the interface for tenant persistence. Two durable
// mappings back it: owner_id -> ChannelTenant and chat_id -> GroupTenant.
// This abstraction allows easy replacement of storage implementations
// (e.g., FileStorage -> PostgreSQL -> MongoDB)
type Repository interface {
	GetChannelTenant(ownerID int64) (*domain.ChannelTenant, error)

	// UpdateChannelTenant applies fn to the owner's record under the write
	// lock and persists the result as a single transaction. The record is
	// created if it does not exist yet. Returning an error from fn aborts
	// the update without mutation.
	UpdateChannelTenant(ownerID int64, fn func(*domain.ChannelTenant) error) (*domain.ChannelTenant, error)

	// ChannelTenantsByTarget returns every channel tenant whose monitored
	// channel is chatID, via the reverse index.
	ChannelTenantsByTarget(chatID int64) ([]*domain.ChannelTenant, error)

	AllChannelTenants() ([]*domain.ChannelTenant, error)

	GetGroupTenant(chatID int64) (*domain.GroupTenant, error)
	UpdateGroupTenant(chatID int64, fn func(*domain.GroupTenant) error) (*domain.GroupTenant, error)
	AllGroupTenants() ([]*domain.GroupTenant, error)
}
