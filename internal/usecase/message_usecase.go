package usecase

import (
	"context"
	"sort"
	"time"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/internal/infrastructure/ratelimit"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

type MessageUseCase struct {
	messageRepo repository.MessageRepository
	rateLimiter *ratelimit.RateLimiter
	now         func() time.Time
}

type MessageUseCaseOption func(*MessageUseCase)

// WithRateLimiter throttles Append per author.
func WithRateLimiter(rl *ratelimit.RateLimiter) MessageUseCaseOption {
	return func(uc *MessageUseCase) {
		uc.rateLimiter = rl
	}
}

func WithClock(now func() time.Time) MessageUseCaseOption {
	return func(uc *MessageUseCase) {
		uc.now = now
	}
}

func NewMessageUseCase(messageRepo repository.MessageRepository, opts ...MessageUseCaseOption) *MessageUseCase {
	uc := &MessageUseCase{
		messageRepo: messageRepo,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// LoadHistory returns every message of the chat, most recent first.
func (uc *MessageUseCase) LoadHistory(ctx context.Context, chatID string) ([]entity.Message, error) {
	if chatID == "" {
		return nil, errors.UnresolvedChat()
	}

	messages, err := uc.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		logger.Error("LoadHistory: failed to load messages for chat %s: %v", chatID, err)
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreateAt.After(messages[j].CreateAt)
	})
	return messages, nil
}

// Append stores a new message written by author. It fails with UNRESOLVED_CHAT
// when chatID is empty.
func (uc *MessageUseCase) Append(ctx context.Context, chatID, text string, author entity.User) (*entity.Message, error) {
	if chatID == "" {
		return nil, errors.UnresolvedChat()
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(author.UserID, ratelimit.ActionSendMessage); !allowed {
			logger.Warn("Append: user %s rate limited for %v", author.UserID, wait)
			return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down.")
		}
	}

	data := entity.FirestoreMessageData{
		Text:     text,
		User:     author,
		CreateAt: uc.now(),
	}

	message, err := uc.messageRepo.Create(ctx, chatID, data)
	if err != nil {
		logger.Error("Append: failed to store message in chat %s: %v", chatID, err)
		return nil, err
	}

	logger.Debug("Message %s appended to chat %s by %s", message.ID, chatID, author.UserID)
	return message, nil
}

// Subscribe opens the live change stream of the chat's messages.
func (uc *MessageUseCase) Subscribe(ctx context.Context, chatID string) (repository.MessageSubscription, error) {
	if chatID == "" {
		return nil, errors.UnresolvedChat()
	}
	return uc.messageRepo.Subscribe(ctx, chatID)
}
