package telegram

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"

	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/permission"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/setup"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/errors"
)

// Gateway adapts *bot.Bot to the boundary interfaces consumed by the core
// modules. The bot instance is injected after construction because the bot
// itself needs the update handlers to exist first.
type Gateway struct {
	bot *bot.Bot

	selfOnce sync.Once
	selfID   int64
	selfErr  error
}

// Compile-time checks against the consumer interfaces.
var (
	_ permission.MembershipLookup = (*Gateway)(nil)
	_ setup.ChatResolver          = (*Gateway)(nil)
)

// NewGateway creates an unbound gateway. SetBot must be called before use.
func NewGateway() *Gateway {
	return &Gateway{}
}

// SetBot binds the Telegram bot instance.
func (g *Gateway) SetBot(b *bot.Bot) {
	g.bot = b
}

func (g *Gateway) ready() error {
	if g.bot == nil {
		return oops.Errorf("bot not initialized")
	}
	return nil
}

// self returns the bot's own user id, fetched once via GetMe.
func (g *Gateway) self(ctx context.Context) (int64, error) {
	g.selfOnce.Do(func() {
		me, err := g.bot.GetMe(ctx)
		if err != nil {
			g.selfErr = oops.With("context", "failed to fetch bot identity").Wrap(err)
			return
		}
		g.selfID = me.ID
	})
	return g.selfID, g.selfErr
}

// classifyLookupError translates the platform's "who is that" responses
// into the shared taxonomy. Forbidden and not-found responses both mean the
// chat is unknown to the bot or the bot is not a member.
func classifyLookupError(err error) error {
	if stderrors.Is(err, bot.ErrorForbidden) || stderrors.Is(err, bot.ErrorNotFound) {
		return errors.ErrChatOrAccountNotFound
	}
	if stderrors.Is(err, bot.ErrorBadRequest) {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "chat not found") || strings.Contains(msg, "user not found") ||
			strings.Contains(msg, "not a member") {
			return errors.ErrChatOrAccountNotFound
		}
	}
	return err
}

func toMembership(member *models.ChatMember) permission.Membership {
	m := permission.Membership{}

	switch member.Type {
	case models.ChatMemberTypeOwner:
		m.Status = permission.StatusCreator
		m.CanRestrictMembers = true
	case models.ChatMemberTypeAdministrator:
		m.Status = permission.StatusAdministrator
		if member.Administrator != nil {
			m.CanRestrictMembers = member.Administrator.CanRestrictMembers
		}
	case models.ChatMemberTypeMember:
		m.Status = permission.StatusMember
	case models.ChatMemberTypeRestricted:
		m.Status = permission.StatusRestricted
	case models.ChatMemberTypeLeft:
		m.Status = permission.StatusLeft
	case models.ChatMemberTypeBanned:
		m.Status = permission.StatusBanned
	}

	return m
}

// SelfMembership returns the bot's own membership in chatID.
func (g *Gateway) SelfMembership(ctx context.Context, chatID int64) (permission.Membership, error) {
	if err := g.ready(); err != nil {
		return permission.Membership{}, err
	}

	selfID, err := g.self(ctx)
	if err != nil {
		return permission.Membership{}, err
	}

	return g.UserMembership(ctx, chatID, selfID)
}

// UserMembership returns userID's membership in chatID.
func (g *Gateway) UserMembership(ctx context.Context, chatID int64, userID int64) (permission.Membership, error) {
	if err := g.ready(); err != nil {
		return permission.Membership{}, err
	}

	member, err := g.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return permission.Membership{}, classifyLookupError(err)
	}

	return toMembership(member), nil
}

// ResolveChat resolves a @username handle or numeric id to a chat record.
func (g *Gateway) ResolveChat(ctx context.Context, identifier string) (setup.ChatRef, error) {
	if err := g.ready(); err != nil {
		return setup.ChatRef{}, err
	}

	var chatID any = identifier
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		chatID = id
	}

	chat, err := g.bot.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return setup.ChatRef{}, classifyLookupError(err)
	}

	return setup.ChatRef{ID: chat.ID, Title: chat.Title}, nil
}

// BanMember removes userID from chatID permanently.
func (g *Gateway) BanMember(ctx context.Context, chatID int64, userID int64) error {
	if err := g.ready(); err != nil {
		return err
	}

	if _, err := g.bot.BanChatMember(ctx, &bot.BanChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	}); err != nil {
		return err
	}

	return nil
}

// SendMessage delivers a Markdown text message to chatID.
func (g *Gateway) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := g.ready(); err != nil {
		return err
	}

	_, err := g.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	return err
}
