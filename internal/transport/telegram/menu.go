package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// reasonText maps the error taxonomy to the human-readable reasons surfaced
// to users. Unclassified errors keep their wrapped message so the user sees
// what the platform actually reported.
func reasonText(err error) string {
	switch err {
	case errors.ErrNotAdmin:
		return "The bot is not an admin in that chat. Please make it an admin first."
	case errors.ErrMissingBanCapability:
		return "The bot is an admin, but it lacks the 'Ban Users' permission. Please grant it."
	case errors.ErrChatOrAccountNotFound:
		return "That chat was not found, or the bot is not a member of it. Please add the bot first."
	case errors.ErrInvalidChannelIdentifier:
		return "That doesn't look like a channel @username or numeric ID. Please try again."
	case errors.ErrNoTargetConfigured:
		return "You have to set a target channel first!"
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}

// sendOrEditPhoto sends a new photo message with a short caption, or edits
// the caption of an existing one. Telegram caps caption length, so menus
// keep captions short and ship long guides as separate text messages.
// Returns the id of the message now showing the menu.
func (h *Handler) sendOrEditPhoto(ctx context.Context, b *bot.Bot, chatID int64, messageID int, photoURL, caption string, markup *models.InlineKeyboardMarkup) int {
	if messageID != 0 {
		edited, err := b.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Caption:     caption,
			ParseMode:   models.ParseModeMarkdown,
			ReplyMarkup: markup,
		})
		if err == nil {
			return edited.ID
		}
		// Message may be gone or the caption unchanged; fall back to a new message.
		slog.Warn("Failed to edit menu caption, sending new message", "chat_id", chatID, "message_id", messageID, "error", err)
	}

	sent, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileString{Data: photoURL},
		Caption:     caption,
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: markup,
	})
	if err != nil {
		slog.Error("Failed to send menu message", "chat_id", chatID, "error", err)
		return 0
	}
	return sent.ID
}

func (h *Handler) deleteMessage(ctx context.Context, b *bot.Bot, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil {
		slog.Warn("Failed to delete old message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

// showMainMenu renders the owner's private main menu. When newMessage is
// true the previous menu is deleted and a fresh photo message is sent;
// otherwise the existing menu's caption is edited in place.
func (h *Handler) showMainMenu(ctx context.Context, b *bot.Bot, ownerID int64, newMessage bool) {
	tenant, err := h.tenants.GetOrCreateChannelTenant(ownerID)
	if err != nil {
		slog.Error("Failed to load channel tenant for menu", "owner_id", ownerID, "error", err)
		return
	}

	target := tenant.MonitoredChannelTitle
	if !tenant.HasTarget() {
		target = "Not configured"
	}

	status := "Off"
	toggleLabel := "🟢 Enable Ban (Channel)"
	if tenant.BanningEnabled {
		status = "On"
		toggleLabel = "🔴 Disable Ban (Channel)"
	}

	caption := fmt.Sprintf(
		"🏠 **Main Menu (Channel Management)**\n\n▪️ **Target Channel**: `%s`\n▪️ **Banning**: `%s`",
		target, status,
	)

	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "➕ Manage Target Channel", CallbackData: "set_channel"}},
			{{Text: toggleLabel, CallbackData: "toggle_channel_ban"}},
			{{Text: "📖 How to Use (Read First!)", CallbackData: "how_to_use_channel"}},
		},
	}

	messageID := tenant.LastMenuMessageID
	if newMessage {
		h.deleteMessage(ctx, b, ownerID, messageID)
		messageID = 0
	}

	newID := h.sendOrEditPhoto(ctx, b, ownerID, messageID, h.cfg.MenuImageURL, caption, markup)
	if newID != 0 && newID != tenant.LastMenuMessageID {
		if err := h.tenants.SetChannelMenuMessage(ownerID, newID); err != nil {
			slog.Error("Failed to record menu message id", "owner_id", ownerID, "error", err)
		}
	}
}

// showGroupMenu renders the in-group menu.
func (h *Handler) showGroupMenu(ctx context.Context, b *bot.Bot, chatID int64, chatTitle string, newMessage bool) {
	tenant, err := h.tenants.GetOrCreateGroupTenant(chatID)
	if err != nil {
		slog.Error("Failed to load group tenant for menu", "chat_id", chatID, "error", err)
		return
	}

	status := "Off"
	toggleLabel := "🟢 Enable Ban (Group)"
	if tenant.BanningEnabled {
		status = "On"
		toggleLabel = "🔴 Disable Ban (Group)"
	}

	caption := fmt.Sprintf(
		"🏠 **Bot Menu (Group)**\n\nWelcome to `%s`!\n▪️ **Banning**: `%s`",
		chatTitle, status,
	)

	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: toggleLabel, CallbackData: "toggle_group_ban"}},
			{{Text: "📖 How to Use (Group)", CallbackData: "how_to_use_group"}},
		},
	}

	messageID := tenant.LastMenuMessageID
	if newMessage {
		h.deleteMessage(ctx, b, chatID, messageID)
		messageID = 0
	}

	newID := h.sendOrEditPhoto(ctx, b, chatID, messageID, h.cfg.MenuImageURL, caption, markup)
	if newID != 0 && newID != tenant.LastMenuMessageID {
		if err := h.tenants.SetGroupMenuMessage(chatID, newID); err != nil {
			slog.Error("Failed to record group menu message id", "chat_id", chatID, "error", err)
		}
	}
}

// showVerificationMenu asks a private user to join the required channel
// before the main menu unlocks.
func (h *Handler) showVerificationMenu(ctx context.Context, b *bot.Bot, ownerID int64) {
	tenant, err := h.tenants.GetOrCreateChannelTenant(ownerID)
	if err != nil {
		slog.Error("Failed to load channel tenant for verification", "owner_id", ownerID, "error", err)
		return
	}

	caption := "**Welcome!**\n\nTo unlock the bot you **must** join our channel first. Hit the button once you have!"
	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "✅ I've Joined", CallbackData: "verify_join"}},
		},
	}

	h.deleteMessage(ctx, b, ownerID, tenant.LastMenuMessageID)
	newID := h.sendOrEditPhoto(ctx, b, ownerID, 0, h.cfg.VerificationImageURL, caption, markup)
	if newID != 0 {
		if err := h.tenants.SetChannelMenuMessage(ownerID, newID); err != nil {
			slog.Error("Failed to record verification message id", "owner_id", ownerID, "error", err)
		}
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             ownerID,
		Text:               fmt.Sprintf("➡️ **Join here**: %s\n\nAfter joining, tap the button above to verify.", h.cfg.RequiredChannelLink),
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}); err != nil {
		slog.Error("Failed to send verification instructions", "owner_id", ownerID, "error", err)
	}
}

const channelGuideText = "This bot does one thing well: it **auto-bans** members who leave your Telegram channel, so the audience that stays is the audience that wants to be there.\n\n---\n\n" +
	"✨ **STEP 1: Add your target channel**\n\n" +
	"1. From the **Main Menu**, tap `➕ Manage Target Channel`.\n" +
	"2. Send the channel's **@username** (public channels) or its **numeric ID** (private channels, the long `-100...` number, a bot like @userinfobot can show it to you).\n\n" +
	"🚨 **IMPORTANT** 🚨\n" +
	"Before sending the identifier, make this bot an **Admin** of your channel with the **'Ban Users'** permission. The bot checks this automatically and tells you what is missing.\n\n---\n\n" +
	"🚀 **STEP 2: Turn banning on**\n\n" +
	"1. Back in the **Main Menu**, tap `🟢 Enable Ban (Channel)`.\n" +
	"2. The button flips to `🔴 Disable Ban (Channel)` once active.\n" +
	"3. If enabling fails, the bot's admin rights were revoked. Restore them and try again.\n" +
	"4. From then on, anyone who leaves your target channel is banned permanently.\n\n---\n\n" +
	"🔔 **Ban notifications**\n\n" +
	"Every successful ban is reported right here in this private chat."

const groupGuideText = "This bot auto-bans members who leave your group, so nobody slips out silently.\n\n---\n\n" +
	"✨ **STEP 1: Add the bot to your group**\n\n" +
	"1. Add this bot to the group like any member.\n" +
	"2. Promote it to **Admin** with the **'Ban Users'** permission. Without it the bot can't act.\n\n---\n\n" +
	"🚀 **STEP 2: Turn banning on**\n\n" +
	"1. Type `/start` in the group to open this menu.\n" +
	"2. Tap `🟢 Enable Ban (Group)`. Only **group admins** can flip this switch.\n" +
	"3. The bot re-checks its own permissions when you enable; missing rights block activation.\n\n---\n\n" +
	"🔔 **Ban notifications**\n\n" +
	"Every ban is announced directly in this group chat."

// sendGuide edits the current menu down to a guide header and ships the
// long-form text as a separate message.
func (h *Handler) sendGuide(ctx context.Context, b *bot.Bot, chatID int64, messageID int, header, backLabel, backData, guide string) {
	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: backLabel, CallbackData: backData}},
		},
	}
	h.sendOrEditPhoto(ctx, b, chatID, messageID, h.cfg.MenuImageURL, header, markup)

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               guide,
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}); err != nil {
		slog.Error("Failed to send usage guide", "chat_id", chatID, "error", err)
	}
}
