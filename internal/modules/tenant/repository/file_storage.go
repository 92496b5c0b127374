package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/domain"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// FileStorage implements Repository using one JSON file per record. A
// reverse index from monitored channel id to owner ids is rebuilt on load
// and maintained on every write, so target lookups do not scan the full
// owner set.
type FileStorage struct {
	channelPath string
	groupPath   string
	mu          sync.RWMutex

	// monitored_channel_id -> set of owner ids
	byTarget map[int64]map[int64]struct{}
}

var _ Repository = (*FileStorage)(nil)

// NewFileStorage creates a file-backed tenant repository rooted at basePath.
func NewFileStorage(basePath string) (*FileStorage, error) {
	s := &FileStorage{
		channelPath: filepath.Join(basePath, "channel_tenants"),
		groupPath:   filepath.Join(basePath, "group_tenants"),
		byTarget:    make(map[int64]map[int64]struct{}),
	}

	for _, dir := range []string{s.channelPath, s.groupPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, oops.With("base_path", basePath, "context", "failed to create tenant directory").Wrap(err)
		}
	}

	if err := s.rebuildIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStorage) rebuildIndex() error {
	entries, err := os.ReadDir(s.channelPath)
	if err != nil {
		return oops.With("directory", s.channelPath, "context", "failed to read channel tenants directory").Wrap(err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.channelPath, entry.Name()))
		if err != nil {
			continue
		}

		var tenant domain.ChannelTenant
		if err := json.Unmarshal(data, &tenant); err != nil {
			continue
		}

		s.indexTarget(&tenant)
	}

	return nil
}

// indexTarget records the tenant in the reverse index. Caller holds the lock.
func (s *FileStorage) indexTarget(tenant *domain.ChannelTenant) {
	if !tenant.HasTarget() {
		return
	}
	owners, ok := s.byTarget[tenant.MonitoredChannelID]
	if !ok {
		owners = make(map[int64]struct{})
		s.byTarget[tenant.MonitoredChannelID] = owners
	}
	owners[tenant.OwnerID] = struct{}{}
}

// unindexTarget drops the owner from the old target's entry. Caller holds the lock.
func (s *FileStorage) unindexTarget(targetID, ownerID int64) {
	if targetID == 0 {
		return
	}
	if owners, ok := s.byTarget[targetID]; ok {
		delete(owners, ownerID)
		if len(owners) == 0 {
			delete(s.byTarget, targetID)
		}
	}
}

func (s *FileStorage) channelFile(ownerID int64) string {
	return filepath.Join(s.channelPath, fmt.Sprintf("%d.json", ownerID))
}

func (s *FileStorage) groupFile(chatID int64) string {
	return filepath.Join(s.groupPath, fmt.Sprintf("%d.json", chatID))
}

func (s *FileStorage) readChannelTenant(ownerID int64) (*domain.ChannelTenant, error) {
	data, err := os.ReadFile(s.channelFile(ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrChannelTenantNotFound
		}
		return nil, oops.With("owner_id", ownerID, "context", "failed to read channel tenant").Wrap(err)
	}

	var tenant domain.ChannelTenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, oops.With("owner_id", ownerID, "context", "failed to unmarshal channel tenant").Wrap(err)
	}

	return &tenant, nil
}

func (s *FileStorage) GetChannelTenant(ownerID int64) (*domain.ChannelTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readChannelTenant(ownerID)
}

func (s *FileStorage) UpdateChannelTenant(ownerID int64, fn func(*domain.ChannelTenant) error) (*domain.ChannelTenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, err := s.readChannelTenant(ownerID)
	if err != nil {
		if err != errors.ErrChannelTenantNotFound {
			return nil, err
		}
		tenant = &domain.ChannelTenant{OwnerID: ownerID, CreatedAt: time.Now()}
	}

	previousTarget := tenant.MonitoredChannelID

	if err := fn(tenant); err != nil {
		return nil, err
	}
	tenant.OwnerID = ownerID
	tenant.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(tenant, "", "  ")
	if err != nil {
		return nil, oops.With("owner_id", ownerID, "context", "failed to marshal channel tenant").Wrap(err)
	}

	if err := os.WriteFile(s.channelFile(ownerID), data, 0644); err != nil {
		return nil, oops.With("owner_id", ownerID, "context", "failed to write channel tenant").Wrap(err)
	}

	if previousTarget != tenant.MonitoredChannelID {
		s.unindexTarget(previousTarget, ownerID)
	}
	s.indexTarget(tenant)

	return tenant, nil
}

func (s *FileStorage) ChannelTenantsByTarget(chatID int64) ([]*domain.ChannelTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners, ok := s.byTarget[chatID]
	if !ok {
		return nil, nil
	}

	tenants := make([]*domain.ChannelTenant, 0, len(owners))
	for ownerID := range owners {
		tenant, err := s.readChannelTenant(ownerID)
		if err != nil {
			// Index entry without a record is stale; skip it.
			continue
		}
		tenants = append(tenants, tenant)
	}

	return tenants, nil
}

func (s *FileStorage) AllChannelTenants() ([]*domain.ChannelTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.channelPath)
	if err != nil {
		return nil, oops.With("directory", s.channelPath, "context", "failed to read channel tenants directory").Wrap(err)
	}

	tenants := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.ChannelTenant, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		data, err := os.ReadFile(filepath.Join(s.channelPath, entry.Name()))
		if err != nil {
			return nil, false
		}

		var tenant domain.ChannelTenant
		if err := json.Unmarshal(data, &tenant); err != nil {
			return nil, false
		}

		return &tenant, true
	})

	return tenants, nil
}

func (s *FileStorage) readGroupTenant(chatID int64) (*domain.GroupTenant, error) {
	data, err := os.ReadFile(s.groupFile(chatID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrGroupTenantNotFound
		}
		return nil, oops.With("chat_id", chatID, "context", "failed to read group tenant").Wrap(err)
	}

	var tenant domain.GroupTenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to unmarshal group tenant").Wrap(err)
	}

	return &tenant, nil
}

func (s *FileStorage) GetGroupTenant(chatID int64) (*domain.GroupTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readGroupTenant(chatID)
}

func (s *FileStorage) UpdateGroupTenant(chatID int64, fn func(*domain.GroupTenant) error) (*domain.GroupTenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, err := s.readGroupTenant(chatID)
	if err != nil {
		if err != errors.ErrGroupTenantNotFound {
			return nil, err
		}
		tenant = &domain.GroupTenant{ChatID: chatID, CreatedAt: time.Now()}
	}

	if err := fn(tenant); err != nil {
		return nil, err
	}
	tenant.ChatID = chatID
	tenant.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(tenant, "", "  ")
	if err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to marshal group tenant").Wrap(err)
	}

	if err := os.WriteFile(s.groupFile(chatID), data, 0644); err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to write group tenant").Wrap(err)
	}

	return tenant, nil
}

func (s *FileStorage) AllGroupTenants() ([]*domain.GroupTenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.groupPath)
	if err != nil {
		return nil, oops.With("directory", s.groupPath, "context", "failed to read group tenants directory").Wrap(err)
	}

	tenants := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.GroupTenant, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		data, err := os.ReadFile(filepath.Join(s.groupPath, entry.Name()))
		if err != nil {
			return nil, false
		}

		var tenant domain.GroupTenant
		if err := json.Unmarshal(data, &tenant); err != nil {
			return nil, false
		}

		return &tenant, true
	})

	return tenants, nil
}
