package service

import (
	"context"
	"log/slog"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/moderation/domain"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/permission"
	tenantService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// Router matches membership events against the tenant registry and drives
// ban dispatch and result notification for every match.
type Router struct {
	tenants    *tenantService.Service
	verifier   *permission.Verifier
	dispatcher *Dispatcher
	notifier   *Notifier
}

// NewRouter creates a membership event router.
func NewRouter(tenants *tenantService.Service, verifier *permission.Verifier, dispatcher *Dispatcher, notifier *Notifier) *Router {
	return &Router{
		tenants:    tenants,
		verifier:   verifier,
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

// Route processes one membership event. Non-leave transitions are discarded
// immediately. Each matching enabled tenant gets at most one ban attempt,
// and a channel-tenant match suppresses the group branch for the same chat
// id so the same user is not double-banned within one event. Failures on
// one tenant never abort processing of the others.
func (r *Router) Route(ctx context.Context, event domain.MembershipEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Panic while routing membership event",
				"chat_id", event.ChatID, "user_id", event.User.ID, "panic", rec)
		}
	}()

	if !event.IsLeave() {
		return
	}

	handled := false

	// Channel branch: every enabled tenant monitoring this chat is served,
	// each notified at its owner's private chat.
	channelTenants, err := r.tenants.FindChannelTenantsByTarget(event.ChatID)
	if err != nil {
		slog.Error("Failed to look up channel tenants for event", "chat_id", event.ChatID, "error", err)
	}

	for _, tenant := range channelTenants {
		handled = true

		if err := r.attemptBan(ctx, event); err != nil {
			slog.Error("Ban failed for channel tenant",
				"owner_id", tenant.OwnerID, "chat_id", event.ChatID, "user_id", event.User.ID, "error", err)
			r.notifier.NotifyBanFailed(ctx, tenant.OwnerID, ScopeChannel, event, err)
			continue
		}

		slog.Info("Banned departed user for channel tenant",
			"owner_id", tenant.OwnerID, "chat_id", event.ChatID, "user_id", event.User.ID)
		r.notifier.NotifyBanned(ctx, tenant.OwnerID, ScopeChannel, event)
	}

	if handled {
		return
	}

	// Group branch: only when no channel tenant absorbed the event.
	groupTenant, err := r.tenants.FindGroupTenant(event.ChatID)
	if err != nil {
		if err != errors.ErrGroupTenantNotFound {
			slog.Error("Failed to look up group tenant for event", "chat_id", event.ChatID, "error", err)
		}
		return
	}

	if err := r.attemptBan(ctx, event); err != nil {
		slog.Error("Ban failed for group tenant",
			"chat_id", event.ChatID, "user_id", event.User.ID, "error", err)
		r.notifier.NotifyBanFailed(ctx, groupTenant.ChatID, ScopeGroup, event, err)
		return
	}

	slog.Info("Banned departed user for group tenant", "chat_id", event.ChatID, "user_id", event.User.ID)
	r.notifier.NotifyBanned(ctx, groupTenant.ChatID, ScopeGroup, event)
}

// attemptBan re-verifies the bot's own rights live and then dispatches the
// ban once. Activation-time checks are not trusted here: permissions can be
// revoked externally between toggle and event.
func (r *Router) attemptBan(ctx context.Context, event domain.MembershipEvent) error {
	if err := r.verifier.Verify(ctx, event.ChatID); err != nil {
		return err
	}
	return r.dispatcher.Ban(ctx, event.ChatID, event.User.ID)
}
