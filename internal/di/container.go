package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	moderationService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/moderation/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/permission"
	"github.com/reshetovitsme/telegram-leave-guard/internal/modules/setup"
	tenantRepo "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/repository"
	tenantService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/config"
	httpServer "github.com/reshetovitsme/telegram-leave-guard/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/telegram-leave-guard/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Tenant Repository
	do.Provide(injector, func(i do.Injector) (tenantRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := tenantRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize tenant repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Telegram Gateway (bot is attached later, once created)
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Gateway, error) {
		return telegramHandler.NewGateway(), nil
	})

	// Register Permission Verifier
	do.Provide(injector, func(i do.Injector) (*permission.Verifier, error) {
		gateway := do.MustInvoke[*telegramHandler.Gateway](i)
		return permission.New(gateway), nil
	})

	// Register Tenant Service
	do.Provide(injector, func(i do.Injector) (*tenantService.Service, error) {
		repo := do.MustInvoke[tenantRepo.Repository](i)
		verifier := do.MustInvoke[*permission.Verifier](i)
		return tenantService.New(repo, verifier), nil
	})

	// Register Ban Dispatcher
	do.Provide(injector, func(i do.Injector) (*moderationService.Dispatcher, error) {
		gateway := do.MustInvoke[*telegramHandler.Gateway](i)
		return moderationService.NewDispatcher(gateway), nil
	})

	// Register Notifier
	do.Provide(injector, func(i do.Injector) (*moderationService.Notifier, error) {
		gateway := do.MustInvoke[*telegramHandler.Gateway](i)
		return moderationService.NewNotifier(gateway), nil
	})

	// Register Membership Event Router
	do.Provide(injector, func(i do.Injector) (*moderationService.Router, error) {
		tenants := do.MustInvoke[*tenantService.Service](i)
		verifier := do.MustInvoke[*permission.Verifier](i)
		dispatcher := do.MustInvoke[*moderationService.Dispatcher](i)
		notifier := do.MustInvoke[*moderationService.Notifier](i)
		return moderationService.NewRouter(tenants, verifier, dispatcher, notifier), nil
	})

	// Register Channel Setup Flow
	do.Provide(injector, func(i do.Injector) (*setup.Flow, error) {
		gateway := do.MustInvoke[*telegramHandler.Gateway](i)
		verifier := do.MustInvoke[*permission.Verifier](i)
		tenants := do.MustInvoke[*tenantService.Service](i)
		return setup.New(gateway, verifier, tenants), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tenants := do.MustInvoke[*tenantService.Service](i)
		flow := do.MustInvoke[*setup.Flow](i)
		router := do.MustInvoke[*moderationService.Router](i)
		verifier := do.MustInvoke[*permission.Verifier](i)
		return telegramHandler.New(cfg, tenants, flow, router, verifier), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tenants := do.MustInvoke[*tenantService.Service](i)
		server := httpServer.New(cfg, tenants)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
			bot.WithAllowedUpdates(bot.AllowedUpdates{"message", "callback_query", "chat_member"}),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands and callbacks
		handler.RegisterHandlers(b)

		// Attach bot to the platform gateway
		gateway := do.MustInvoke[*telegramHandler.Gateway](i)
		gateway.SetBot(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Shutdown bot if it exists
	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	return nil
}
