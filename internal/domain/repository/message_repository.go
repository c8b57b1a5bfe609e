package repository

import (
	"context"
	"errors"

	"duochat/internal/domain/entity"
)

// ErrSubscriptionStopped ends a MessageSubscription after Stop or context cancellation.
var ErrSubscriptionStopped = errors.New("message subscription stopped")

type MessageRepository interface {
	// ListByChat returns every message of the chat, newest first.
	ListByChat(ctx context.Context, chatID string) ([]entity.Message, error)
	Create(ctx context.Context, chatID string, data entity.FirestoreMessageData) (*entity.Message, error)
	// Subscribe streams change sets for the chat's messages in the same order as ListByChat.
	Subscribe(ctx context.Context, chatID string) (MessageSubscription, error)
}

type MessageSubscription interface {
	// Next blocks until the next change set arrives.
	Next() ([]entity.MessageChange, error)
	Stop()
}
