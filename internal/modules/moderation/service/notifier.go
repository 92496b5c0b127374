package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/moderation/domain"
)

// MessageSender is the platform's send-message primitive.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Scope tells the notifier whether the outcome belongs to an owner's
// monitored channel or to a self-moderating group, which changes the copy.
type Scope string

const (
	ScopeChannel Scope = "Channel"
	ScopeGroup   Scope = "Group"
)

// Notifier delivers ban outcome notices. Delivery failures are logged only;
// they never fail or retry the event routing that produced them.
type Notifier struct {
	sender MessageSender
}

// NewNotifier creates a notification sender.
func NewNotifier(sender MessageSender) *Notifier {
	return &Notifier{sender: sender}
}

func username(m domain.Member) string {
	if m.Username == "" {
		return "none"
	}
	return "@" + m.Username
}

// NotifyBanned reports a successful ban to destination: the owner's private
// chat for channel tenants, the group chat itself for group tenants.
func (n *Notifier) NotifyBanned(ctx context.Context, destination int64, scope Scope, event domain.MembershipEvent) {
	text := fmt.Sprintf(
		"✅ **Ban Notice (%s)**\n\nThe following user left **%s** and has been banned:\n\n▪️ **Name**: %s\n▪️ **Username**: %s\n▪️ **ID**: `%d`",
		scope, event.ChatTitle, event.User.DisplayName, username(event.User), event.User.ID,
	)

	if err := n.sender.SendMessage(ctx, destination, text); err != nil {
		slog.Error("Failed to deliver ban notification",
			"destination", destination, "chat_id", event.ChatID, "user_id", event.User.ID, "error", err)
	}
}

// NotifyBanFailed reports a failed ban attempt with its reason.
func (n *Notifier) NotifyBanFailed(ctx context.Context, destination int64, scope Scope, event domain.MembershipEvent, reason error) {
	text := fmt.Sprintf(
		"❌ **Ban Failed (%s)**\n\nCould not ban %s in **%s**.\n**Error**: `%v`\n\nMake sure the bot is still an admin with the 'Ban Users' permission.",
		scope, event.User.DisplayName, event.ChatTitle, reason,
	)

	if err := n.sender.SendMessage(ctx, destination, text); err != nil {
		slog.Error("Failed to deliver ban-failure notification",
			"destination", destination, "chat_id", event.ChatID, "user_id", event.User.ID, "error", err)
	}
}
