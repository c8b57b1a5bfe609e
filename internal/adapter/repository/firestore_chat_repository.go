package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "message"
	usersCollection    = "users"

	fieldUserIDs  = "userIds"
	fieldUserID   = "userId"
	fieldText     = "text"
	fieldUser     = "user"
	fieldCreateAt = "createAt"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) FindByKey(ctx context.Context, key []string) ([]*entity.Chat, error) {
	// Array equality: the stored userIds must match key element by element.
	iter := r.client.Collection(chatsCollection).Where(fieldUserIDs, "==", key).Documents(ctx)
	defer iter.Stop()

	var chats []*entity.Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while querying chats for key %v: %v", key, err)
			return nil, errors.StoreUnavailable("Failed to query chats", err)
		}

		chat, err := decodeChat(doc)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}

	return chats, nil
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	ref, _, err := r.client.Collection(chatsCollection).Add(ctx, chat)
	if err != nil {
		return errors.StoreUnavailable("Failed to create chat", err)
	}

	chat.ID = ref.ID
	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection(chatsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.StoreUnavailable("Failed to get chat", err)
	}

	return decodeChat(doc)
}

func decodeChat(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.MalformedRecord("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID
	return &chat, nil
}
