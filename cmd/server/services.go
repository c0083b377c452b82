package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	mstream "github.com/haowjy/meridian-stream-go"

	"chatbot/internal/auth"
	"chatbot/internal/capabilities"
	"chatbot/internal/config"
	"chatbot/internal/domain/models"
	docsysSvc "chatbot/internal/domain/services/docsystem"
	domainllm "chatbot/internal/domain/services/llm"
	"chatbot/internal/repository/postgres"
	serviceAccount "chatbot/internal/service/account"
	serviceDocsys "chatbot/internal/service/docsystem"
	"chatbot/internal/service/entitlement"
	serviceFiles "chatbot/internal/service/files"
	"chatbot/internal/service/janitor"
	serviceLLM "chatbot/internal/service/llm"
	"chatbot/internal/service/llm/artifacts"
	"chatbot/internal/service/llm/chat"
	"chatbot/internal/service/llm/conversation"
	"chatbot/internal/service/llm/formatting"
	"chatbot/internal/service/llm/streaming"
	"chatbot/internal/service/llm/tools"
	"chatbot/internal/service/llm/tools/external"
	serviceNewsletter "chatbot/internal/service/newsletter"
	"chatbot/internal/service/resolver"
	"chatbot/internal/service/resumable"
)

// Services is everything the handlers need.
type Services struct {
	Chat       *chat.Service
	Streaming  *streaming.Service
	Documents  docsysSvc.DocumentService
	Accounts   *serviceAccount.Service
	Files      *serviceFiles.Service
	Newsletter *serviceNewsletter.Service

	Providers *serviceLLM.ProviderRegistry
	Catalog   *capabilities.Catalog
	Sessions  *auth.SessionManager
	Verifier  auth.TokenVerifier
	Janitor   *janitor.Janitor

	// Optional background pieces, nil when Redis is not configured
	MailWorker *serviceNewsletter.Worker

	closers []func()
}

// Close releases connections opened by setupServices in reverse order.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// setupServices builds repositories and services on top of pool.
func setupServices(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	txManager := postgres.NewTransactionManager(pool, logger)
	userRepo := postgres.NewUserRepository(repoConfig)
	chatRepo := postgres.NewChatRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	voteRepo := postgres.NewVoteRepository(repoConfig)
	streamRepo := postgres.NewStreamRepository(repoConfig)
	docRepo := postgres.NewDocumentRepository(repoConfig)
	suggestionRepo := postgres.NewSuggestionRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig, txManager)
	subscriberRepo := postgres.NewSubscriberRepository(repoConfig)

	chatResolver := resolver.New[models.Chat](chatRepo.GetChatByExternalID, chatRepo.GetChatByID, resolver.ChatPolicy, logger)
	docResolver := resolver.New[models.Document](docRepo.GetLatestByExternalID, docRepo.GetRevisionByID, resolver.DocumentPolicy, logger)

	// Models and pricing
	s.Providers = serviceLLM.SetupProviders(cfg, logger)
	s.closers = append(s.closers, s.Providers.Close)

	loader := capabilities.EmbeddedLoader()
	if cfg.CatalogURL != "" {
		loader = capabilities.HTTPLoader(&http.Client{Timeout: 10 * time.Second}, cfg.CatalogURL)
	}
	s.Catalog = capabilities.NewCatalog(loader, config.CatalogTTL, logger)

	// Resumable streams need Redis; without it the bridge is disabled.
	var store resumable.Store
	if cfg.RedisURL != "" {
		redisStore, err := resumable.NewRedisStore(ctx, cfg.RedisURL, cfg.TablePrefix, config.ResumableStreamTTL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = redisStore.Close() })
		store = redisStore
		logger.Info("resumable streams enabled")
	} else {
		logger.Warn("REDIS_URL not set - resumable streams disabled")
	}
	bridge := resumable.NewBridge(store, logger)

	// Stream registry, swept in the background
	streamRegistry := mstream.NewRegistry()
	go streamRegistry.StartCleanup(ctx)

	// Artifacts and tools
	artifactService := artifacts.NewService(
		s.Providers,
		serviceLLM.ModelArtifact,
		artifacts.DefaultHandlers(),
		docRepo,
		suggestionRepo,
		logger,
	)
	toolConfig := tools.DefaultToolConfig()
	toolConfig.WeatherEnabled = cfg.Flags.WeatherTool
	weather := external.NewOpenMeteoClient(cfg.WeatherBaseURL)
	toolset := func(userID string, w domainllm.ChunkWriter) *tools.ToolRegistry {
		return tools.NewToolRegistryBuilder().
			WithConfig(toolConfig).
			WithWeather(weather).
			WithArtifactTools(artifactService, docResolver, userID, w).
			Build()
	}

	// Chat
	s.Chat = chat.NewService(chatRepo, messageRepo, voteRepo, chatResolver, txManager, cfg.Flags, logger)
	s.Streaming = streaming.NewService(streaming.Deps{
		Chats:     chatRepo,
		Messages:  messageRepo,
		Streams:   streamRepo,
		TxManager: txManager,
		Locker:    txManager,
		Resolver:  chatResolver,
		Gate:      entitlement.NewGate(chatRepo, messageRepo, entitlement.LimitsFromConfig(cfg), logger),
		Models:    s.Providers,
		Titles:    streaming.NewTitleGenerator(s.Providers, logger),
		History:   conversation.NewMessageBuilderService(formatting.DefaultRegistry(), logger),
		Usage:     s.Catalog,
		Tools:     toolset,
		Resumable: bridge,
		Registry:  streamRegistry,
	}, cfg, logger)

	s.Documents = serviceDocsys.NewDocumentService(docRepo, suggestionRepo, docResolver, txManager, logger)

	// Auth
	sessions, err := auth.NewSessionManager(cfg.AuthSecret, config.SessionTTL, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Sessions = sessions
	s.Verifier = sessions
	if cfg.AuthJWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.AuthJWKSURL, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Verifier = auth.Chain{sessions, jwks}
		logger.Info("external identity provider enabled", "jwks_url", cfg.AuthJWKSURL)
	}
	s.closers = append(s.closers, func() { _ = s.Verifier.Close() })

	s.Accounts = serviceAccount.NewService(userRepo, sessions, cfg.Flags, logger)
	s.Files = serviceFiles.NewService(fileRepo, auth.NewLinkSigner(cfg.AuthSecret), cfg, logger)

	// Newsletter mail goes through asynq when Redis is available
	mailer := serviceNewsletter.LogMailer{Logger: logger}
	var queue serviceNewsletter.MailQueue = serviceNewsletter.InlineQueue{Mailer: mailer}
	if cfg.RedisURL != "" {
		asynqQueue, err := serviceNewsletter.NewAsynqQueue(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = asynqQueue.Close() })
		queue = asynqQueue

		s.MailWorker, err = serviceNewsletter.NewWorker(cfg.RedisURL, mailer, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	s.Newsletter = serviceNewsletter.NewService(subscriberRepo, queue, cfg.PublicURL, logger)

	s.Janitor, err = janitor.New(streamRepo, cfg.StreamPruneSchedule, cfg.StreamRetention, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}
