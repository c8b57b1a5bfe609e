package repository

import (
	"context"

	"duochat/internal/domain/entity"
)

type ChatRepository interface {
	// FindByKey returns every chat whose stored userIds equal key exactly.
	FindByKey(ctx context.Context, key []string) ([]*entity.Chat, error)
	// Create persists chat and sets its store-assigned ID.
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
}
