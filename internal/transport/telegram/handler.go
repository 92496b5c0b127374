package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	moderationDomain "github.com/reshetovitsme/telegram-leave-guard/internal/modules/moderation/domain"
	moderationService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/moderation/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/permission"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/setup"
	tenantService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/config"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// Handler wires Telegram updates to the core: commands and callbacks feed
// the setup flow and the tenant registry, chat-member updates feed the
// event router.
type Handler struct {
	cfg      *config.Config
	tenants  *tenantService.Service
	flow     *setup.Flow
	router   *moderationService.Router
	verifier *permission.Verifier
}

// New creates a Telegram handler.
func New(cfg *config.Config, tenants *tenantService.Service, flow *setup.Flow, router *moderationService.Router, verifier *permission.Verifier) *Handler {
	return &Handler{
		cfg:      cfg,
		tenants:  tenants,
		flow:     flow,
		router:   router,
		verifier: verifier,
	}
}

// RegisterHandlers registers commands and callback tokens.
func (h *Handler) RegisterHandlers(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, h.handleCancel)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "verify_join", bot.MatchTypeExact, h.callbackVerifyJoin)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "set_channel", bot.MatchTypeExact, h.callbackSetChannel)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "toggle_channel_ban", bot.MatchTypeExact, h.callbackToggleChannelBan)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "how_to_use_channel", bot.MatchTypeExact, h.callbackHowToUseChannel)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "back_to_main", bot.MatchTypeExact, h.callbackBackToMain)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "toggle_group_ban", bot.MatchTypeExact, h.callbackToggleGroupBan)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "how_to_use_group", bot.MatchTypeExact, h.callbackHowToUseGroup)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "back_to_group_menu", bot.MatchTypeExact, h.callbackBackToGroupMenu)
}

// HandleUpdate processes everything the registered handlers don't:
// chat-member transitions and free-text input for the setup flow.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.ChatMember != nil {
		h.router.Route(ctx, toMembershipEvent(update.ChatMember))
		return
	}

	if update.Message != nil && update.Message.Chat.Type == "private" && update.Message.From != nil {
		if update.Message.Text != "" && h.flow.Awaiting(update.Message.From.ID) {
			h.handleChannelInput(ctx, b, update.Message)
		}
	}
}

func memberStatus(member models.ChatMember) moderationDomain.MemberStatus {
	switch member.Type {
	case models.ChatMemberTypeOwner:
		return moderationDomain.StatusCreator
	case models.ChatMemberTypeAdministrator:
		return moderationDomain.StatusAdministrator
	case models.ChatMemberTypeMember:
		return moderationDomain.StatusMember
	case models.ChatMemberTypeRestricted:
		return moderationDomain.StatusRestricted
	case models.ChatMemberTypeLeft:
		return moderationDomain.StatusLeft
	case models.ChatMemberTypeBanned:
		return moderationDomain.StatusBanned
	default:
		return ""
	}
}

func memberUser(member models.ChatMember) *models.User {
	switch member.Type {
	case models.ChatMemberTypeOwner:
		return member.Owner.User
	case models.ChatMemberTypeAdministrator:
		// Administrator is the one variant carrying its user by value.
		return &member.Administrator.User
	case models.ChatMemberTypeMember:
		return member.Member.User
	case models.ChatMemberTypeRestricted:
		return member.Restricted.User
	case models.ChatMemberTypeLeft:
		return member.Left.User
	case models.ChatMemberTypeBanned:
		return member.Banned.User
	default:
		return nil
	}
}

func toMembershipEvent(upd *models.ChatMemberUpdated) moderationDomain.MembershipEvent {
	event := moderationDomain.MembershipEvent{
		ChatID:    upd.Chat.ID,
		ChatTitle: upd.Chat.Title,
		OldStatus: memberStatus(upd.OldChatMember),
		NewStatus: memberStatus(upd.NewChatMember),
	}

	if user := memberUser(upd.NewChatMember); user != nil {
		event.User = moderationDomain.Member{
			ID:          user.ID,
			DisplayName: strings.TrimSpace(user.FirstName + " " + user.LastName),
			Username:    user.Username,
		}
	}

	return event
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch msg.Chat.Type {
	case "private":
		// Delete the user's /start to keep the chat clean.
		h.deleteMessage(ctx, b, msg.Chat.ID, msg.ID)

		if h.cfg.VerificationEnabled() && !h.verifier.IsJoined(ctx, h.cfg.RequiredChannelID, msg.From.ID) {
			if err := h.tenants.SetVerified(msg.From.ID, false); err != nil {
				slog.Error("Failed to record verification state", "owner_id", msg.From.ID, "error", err)
			}
			h.showVerificationMenu(ctx, b, msg.From.ID)
			return
		}

		if err := h.tenants.SetVerified(msg.From.ID, true); err != nil {
			slog.Error("Failed to record verification state", "owner_id", msg.From.ID, "error", err)
		}
		h.showMainMenu(ctx, b, msg.From.ID, true)

	case "group", "supergroup":
		h.deleteMessage(ctx, b, msg.Chat.ID, msg.ID)
		h.showGroupMenu(ctx, b, msg.Chat.ID, msg.Chat.Title, true)
	}
}

func (h *Handler) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat.Type != "private" {
		return
	}

	h.deleteMessage(ctx, b, msg.Chat.ID, msg.ID)

	if err := h.flow.Cancel(ctx, msg.From.ID); err != nil {
		slog.Error("Failed to cancel setup flow", "owner_id", msg.From.ID, "error", err)
	}
	h.showMainMenu(ctx, b, msg.From.ID, true)
}

// handleChannelInput consumes the next text message from an owner who is
// awaiting channel input.
func (h *Handler) handleChannelInput(ctx context.Context, b *bot.Bot, msg *models.Message) {
	ownerID := msg.From.ID
	h.deleteMessage(ctx, b, msg.Chat.ID, msg.ID)

	var feedback string
	tenant, err := h.flow.Submit(ctx, ownerID, msg.Text)
	if err != nil {
		feedback = fmt.Sprintf("❌ **Failed!**\n%s\n\nPlease fix it and try again.", reasonText(err))
	} else {
		feedback = fmt.Sprintf("✅ **Success!**\nChannel **%s** has been added. Enable banning from the Main Menu.", tenant.MonitoredChannelTitle)
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    msg.Chat.ID,
		Text:      feedback,
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		slog.Error("Failed to send setup feedback", "owner_id", ownerID, "error", err)
	}

	h.showMainMenu(ctx, b, ownerID, true)
}

func (h *Handler) answer(ctx context.Context, b *bot.Bot, queryID, text string, alert bool) {
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		slog.Warn("Failed to answer callback query", "error", err)
	}
}

// callbackMessage extracts the message a callback was attached to, if still
// accessible.
func callbackMessage(update *models.Update) *models.Message {
	if update.CallbackQuery == nil {
		return nil
	}
	return update.CallbackQuery.Message.Message
}

func (h *Handler) callbackVerifyJoin(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	userID := query.From.ID

	if h.cfg.VerificationEnabled() && !h.verifier.IsJoined(ctx, h.cfg.RequiredChannelID, userID) {
		h.answer(ctx, b, query.ID, "❌ You haven't joined yet. Please join the channel first.", true)
		return
	}

	if err := h.tenants.SetVerified(userID, true); err != nil {
		slog.Error("Failed to record verification state", "owner_id", userID, "error", err)
	}
	h.answer(ctx, b, query.ID, "✅ Verification successful!", true)
	h.showMainMenu(ctx, b, userID, true)
}

func (h *Handler) callbackSetChannel(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	ownerID := query.From.ID

	if err := h.flow.Begin(ctx, ownerID); err != nil {
		slog.Error("Failed to start setup flow", "owner_id", ownerID, "error", err)
		h.answer(ctx, b, query.ID, "Something went wrong, please try again.", true)
		return
	}
	h.answer(ctx, b, query.ID, "", false)

	caption := "✍️ **Send your channel's @username or ID**\n\nMake sure this bot is already an **Admin** with the **'Ban Users'** permission!"
	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⬅️ Cancel", CallbackData: "back_to_main"}},
		},
	}

	if msg := callbackMessage(update); msg != nil {
		h.sendOrEditPhoto(ctx, b, msg.Chat.ID, msg.ID, h.cfg.MenuImageURL, caption, markup)
	}
}

func (h *Handler) callbackToggleChannelBan(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	ownerID := query.From.ID

	enabled, err := h.tenants.ToggleChannelBan(ctx, ownerID)
	if err != nil {
		if err == errors.ErrNoTargetConfigured {
			h.answer(ctx, b, query.ID, "⚠️ "+reasonText(err), true)
			return
		}
		h.answer(ctx, b, query.ID, "Failed to enable: "+reasonText(err), true)
		h.showMainMenu(ctx, b, ownerID, false)
		return
	}

	status := "Off"
	if enabled {
		status = "On"
	}
	h.answer(ctx, b, query.ID, "Channel banning is now: "+status, true)
	h.showMainMenu(ctx, b, ownerID, false)
}

func (h *Handler) callbackHowToUseChannel(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	h.answer(ctx, b, query.ID, "", false)

	if msg := callbackMessage(update); msg != nil {
		h.sendGuide(ctx, b, msg.Chat.ID, msg.ID,
			"📖 **Usage Guide (Channel)**", "⬅️ Back to Main Menu", "back_to_main", channelGuideText)
	}
}

func (h *Handler) callbackBackToMain(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	ownerID := query.From.ID

	// The cancel button on the input prompt lands here too.
	if err := h.flow.Cancel(ctx, ownerID); err != nil {
		slog.Error("Failed to cancel setup flow", "owner_id", ownerID, "error", err)
	}

	h.answer(ctx, b, query.ID, "", false)
	h.showMainMenu(ctx, b, ownerID, false)
}

func (h *Handler) callbackToggleGroupBan(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	msg := callbackMessage(update)
	if msg == nil {
		return
	}

	chatID := msg.Chat.ID

	isAdmin, err := h.verifier.IsChatAdmin(ctx, chatID, query.From.ID)
	if err != nil {
		slog.Error("Failed to check group admin status", "chat_id", chatID, "user_id", query.From.ID, "error", err)
		h.answer(ctx, b, query.ID, "Something went wrong while checking your permissions.", true)
		return
	}
	if !isAdmin {
		h.answer(ctx, b, query.ID, "❌ Only group admins can toggle this feature.", true)
		return
	}

	enabled, err := h.tenants.ToggleGroupBan(ctx, chatID)
	if err != nil {
		h.answer(ctx, b, query.ID, "Failed to enable: "+reasonText(err), true)
		h.showGroupMenu(ctx, b, chatID, msg.Chat.Title, false)
		return
	}

	status := "Off"
	if enabled {
		status = "On"
	}
	h.answer(ctx, b, query.ID, "Group banning is now: "+status, true)
	h.showGroupMenu(ctx, b, chatID, msg.Chat.Title, false)
}

func (h *Handler) callbackHowToUseGroup(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	h.answer(ctx, b, query.ID, "", false)

	if msg := callbackMessage(update); msg != nil {
		h.sendGuide(ctx, b, msg.Chat.ID, msg.ID,
			"📖 **Usage Guide (Group)**", "⬅️ Back to Group Menu", "back_to_group_menu", groupGuideText)
	}
}

func (h *Handler) callbackBackToGroupMenu(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	msg := callbackMessage(update)
	if msg == nil {
		return
	}

	h.answer(ctx, b, query.ID, "", false)
	h.showGroupMenu(ctx, b, msg.Chat.ID, msg.Chat.Title, false)
}
