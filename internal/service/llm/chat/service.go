package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/domain/repositories"
	llmSvc "chatbot/internal/domain/services/llm"
)

// ChatResolver finds a chat by external or internal id.
type ChatResolver interface {
	Resolve(ctx context.Context, id string) (*models.Chat, error)
}

// Service implements the ChatService interface
// Handles chat reads and mutations that do not involve the model.
type Service struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	voteRepo    repositories.VoteRepository
	resolver    ChatResolver
	txManager   repositories.TransactionManager
	flags       config.FeatureFlags
	logger      *slog.Logger
}

// NewService creates a new chat service
func NewService(
	chatRepo repositories.ChatRepository,
	messageRepo repositories.MessageRepository,
	voteRepo repositories.VoteRepository,
	resolver ChatResolver,
	txManager repositories.TransactionManager,
	flags config.FeatureFlags,
	logger *slog.Logger,
) *Service {
	return &Service{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		voteRepo:    voteRepo,
		resolver:    resolver,
		txManager:   txManager,
		flags:       flags,
		logger:      logger,
	}
}

var _ llmSvc.ChatService = (*Service)(nil)

// GetChat returns a chat with its normalized messages
func (s *Service) GetChat(ctx context.Context, session *models.Session, id string) (*llmSvc.ChatWithMessages, error) {
	if session == nil {
		return nil, domain.NewChatError("unauthorized:chat")
	}

	chat, err := s.resolveChat(ctx, id)
	if err != nil {
		return nil, err
	}
	if chat.Visibility == models.VisibilityPrivate && !chat.OwnedBy(session.UserID) {
		return nil, domain.NewChatError("forbidden:chat")
	}

	rows, err := s.messageRepo.ListMessagesByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	return &llmSvc.ChatWithMessages{
		Chat:     chat,
		Messages: NormalizeMessages(rows, chat.ExternalID),
	}, nil
}

// DeleteChat removes the chat and its messages in one transaction
func (s *Service) DeleteChat(ctx context.Context, userID, id string) (*models.Chat, error) {
	chat, err := s.ownedChat(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var removed int64
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		n, err := s.messageRepo.DeleteMessagesByChat(txCtx, chat.ID)
		if err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		removed = n
		return s.chatRepo.DeleteChat(txCtx, chat.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chat deleted",
		"id", chat.ExternalID,
		"user_id", userID,
		"messages", removed,
	)

	return chat, nil
}

// UpdateVisibility changes who can read a chat. Making a chat public requires
// the sharing flag.
func (s *Service) UpdateVisibility(ctx context.Context, userID, id string, visibility models.Visibility) error {
	err := validation.Validate(visibility,
		validation.Required,
		validation.In(models.VisibilityPublic, models.VisibilityPrivate),
	)
	if err != nil {
		return fmt.Errorf("%w: visibility: %v", domain.ErrValidation, err)
	}
	if visibility == models.VisibilityPublic && !s.flags.ShareConversations {
		return fmt.Errorf("sharing conversations: %w", domain.ErrDisabled)
	}

	chat, err := s.ownedChat(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.chatRepo.UpdateVisibility(ctx, chat.ID, visibility); err != nil {
		return err
	}

	s.logger.Info("chat visibility updated", "id", chat.ExternalID, "visibility", visibility)
	return nil
}

// DeleteTrailingMessages removes a message and every later message of its chat
func (s *Service) DeleteTrailingMessages(ctx context.Context, userID, messageID string) error {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}

	chat, err := s.chatRepo.GetChatByID(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if !chat.OwnedBy(userID) {
		return domain.NewChatError("forbidden:chat")
	}

	n, err := s.messageRepo.DeleteMessagesSince(ctx, chat.ID, msg.CreatedAt)
	if err != nil {
		return err
	}

	s.logger.Info("trailing messages deleted",
		"chat_id", chat.ExternalID,
		"from_message", messageID,
		"count", n,
	)
	return nil
}

// ListHistory returns a page of the user's chats, newest first
func (s *Service) ListHistory(ctx context.Context, query models.HistoryQuery) (*models.ChatPage, error) {
	if query.StartingAfter != "" && query.EndingBefore != "" {
		return nil, fmt.Errorf("%w: only one of starting_after or ending_before can be provided", domain.ErrValidation)
	}

	err := validation.ValidateStruct(&query,
		validation.Field(&query.UserID, validation.Required),
		validation.Field(&query.Limit, validation.Min(0), validation.Max(config.MaxHistoryLimit)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if query.Limit == 0 {
		query.Limit = config.DefaultHistoryLimit
	}

	page, err := s.chatRepo.ListChatsByUser(ctx, query)
	if err != nil {
		return nil, err
	}
	if page.Chats == nil {
		page.Chats = []models.Chat{}
	}
	return page, nil
}

// ListVotes returns the votes of an owned chat
func (s *Service) ListVotes(ctx context.Context, userID, chatID string) ([]models.Vote, error) {
	chat, err := s.votableChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	votes, err := s.voteRepo.ListVotesByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Vote, len(votes))
	for i, v := range votes {
		v.ChatID = chat.ExternalID
		out[i] = v
	}
	return out, nil
}

// Vote records a thumbs up or down. Voting twice on a message replaces the vote.
func (s *Service) Vote(ctx context.Context, userID string, req *llmSvc.VoteRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ChatID, validation.Required),
		validation.Field(&req.MessageID, validation.Required),
		validation.Field(&req.Type, validation.Required, validation.In("up", "down")),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	chat, err := s.votableChat(ctx, userID, req.ChatID)
	if err != nil {
		return err
	}

	if err := s.voteRepo.UpsertVote(ctx, chat.ID, req.MessageID, req.Type == "up"); err != nil {
		return err
	}

	s.logger.Debug("vote recorded", "chat_id", chat.ExternalID, "message_id", req.MessageID, "type", req.Type)
	return nil
}

func (s *Service) resolveChat(ctx context.Context, id string) (*models.Chat, error) {
	chat, err := s.resolver.Resolve(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewChatError("not_found:chat").Wrap(err)
	}
	return chat, err
}

func (s *Service) ownedChat(ctx context.Context, userID, id string) (*models.Chat, error) {
	chat, err := s.resolveChat(ctx, id)
	if err != nil {
		return nil, err
	}
	if !chat.OwnedBy(userID) {
		return nil, domain.NewChatError("forbidden:chat")
	}
	return chat, nil
}

// votableChat applies the vote surface to resolution failures.
func (s *Service) votableChat(ctx context.Context, userID, id string) (*models.Chat, error) {
	chat, err := s.resolver.Resolve(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewChatError("not_found:vote").Wrap(err)
	}
	if err != nil {
		return nil, err
	}
	if !chat.OwnedBy(userID) {
		return nil, domain.NewChatError("forbidden:vote")
	}
	return chat, nil
}
