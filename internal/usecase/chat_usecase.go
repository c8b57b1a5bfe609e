package usecase

import (
	"context"

	"github.com/samber/lo"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

type ChatUseCase struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

func NewChatUseCase(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatUseCase {
	return &ChatUseCase{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

// ResolveOrCreate returns the chat for the given participants, creating it when
// none exists. Two concurrent first calls for the same participants may both
// create a chat; the store has no uniqueness constraint on the key.
func (uc *ChatUseCase) ResolveOrCreate(ctx context.Context, participantIDs []string) (*entity.Chat, error) {
	key := entity.ChatKey(lo.Uniq(participantIDs))
	if len(key) < 2 {
		return nil, errors.BadRequest("A chat needs at least two distinct participants", nil)
	}

	chats, err := uc.chatRepo.FindByKey(ctx, key)
	if err != nil {
		logger.Error("ResolveOrCreate: failed to look up chat for %v: %v", key, err)
		return nil, err
	}
	if len(chats) > 0 {
		if len(chats) > 1 {
			logger.Warn("ResolveOrCreate: %d chats share key %v, using %s", len(chats), key, chats[0].ID)
		}
		return chats[0], nil
	}

	users, err := uc.userRepo.GetByIDs(ctx, key)
	if err != nil {
		logger.Error("ResolveOrCreate: failed to fetch participants %v: %v", key, err)
		return nil, err
	}

	chat := &entity.Chat{
		UserIDs: key,
		Users:   users,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		logger.Error("ResolveOrCreate: failed to create chat for %v: %v", key, err)
		return nil, err
	}

	logger.Info("Created chat %s for %v", chat.ID, key)
	return chat, nil
}

// GetChat returns the chat if userID takes part in it.
func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return chat, nil
}
