package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(chatID string) *firestore.CollectionRef {
	return r.client.Collection(chatsCollection).Doc(chatID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) ListByChat(ctx context.Context, chatID string) ([]entity.Message, error) {
	iter := r.messages(chatID).OrderBy(fieldCreateAt, firestore.Desc).Documents(ctx)
	defer iter.Stop()

	messages := []entity.Message{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, errors.StoreUnavailable("Failed to load messages", err)
		}

		message, err := decodeMessage(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (r *firestoreMessageRepository) Create(ctx context.Context, chatID string, data entity.FirestoreMessageData) (*entity.Message, error) {
	ref, _, err := r.messages(chatID).Add(ctx, data)
	if err != nil {
		return nil, errors.StoreUnavailable("Failed to create message", err)
	}

	message := data.WithID(ref.ID)
	return &message, nil
}

func (r *firestoreMessageRepository) Subscribe(ctx context.Context, chatID string) (repository.MessageSubscription, error) {
	if chatID == "" {
		return nil, errors.UnresolvedChat()
	}
	it := r.messages(chatID).OrderBy(fieldCreateAt, firestore.Desc).Snapshots(ctx)
	return &firestoreMessageSubscription{chatID: chatID, it: it}, nil
}

type firestoreMessageSubscription struct {
	chatID string
	it     *firestore.QuerySnapshotIterator
}

func (s *firestoreMessageSubscription) Next() ([]entity.MessageChange, error) {
	snap, err := s.it.Next()
	if err != nil {
		if isStopped(err) {
			return nil, repository.ErrSubscriptionStopped
		}
		return nil, errors.StoreUnavailable("Message subscription failed", err)
	}

	changes := make([]entity.MessageChange, 0, len(snap.Changes))
	for _, change := range snap.Changes {
		kind := changeKind(change.Kind)
		message, err := decodeMessage(change.Doc.Ref.ID, change.Doc.Data())
		if err != nil {
			if kind == entity.ChangeAdded {
				return nil, err
			}
			// Only additions are merged, so a broken modified/removed document is not fatal.
			logger.Warn("Undecodable %s change %s in chat %s: %v", kind, change.Doc.Ref.ID, s.chatID, err)
			message = entity.Message{ID: change.Doc.Ref.ID}
		}
		changes = append(changes, entity.MessageChange{Kind: kind, Message: message})
	}

	return changes, nil
}

func (s *firestoreMessageSubscription) Stop() {
	s.it.Stop()
}

func isStopped(err error) bool {
	return err == iterator.Done ||
		stderrors.Is(err, context.Canceled) ||
		status.Code(err) == codes.Canceled
}

func changeKind(kind firestore.DocumentChangeKind) entity.ChangeKind {
	switch kind {
	case firestore.DocumentModified:
		return entity.ChangeModified
	case firestore.DocumentRemoved:
		return entity.ChangeRemoved
	default:
		return entity.ChangeAdded
	}
}

// decodeMessage converts raw document fields into a Message. A missing or
// non-timestamp createAt is a data integrity fault.
func decodeMessage(id string, data map[string]interface{}) (entity.Message, error) {
	createAt, ok := data[fieldCreateAt].(time.Time)
	if !ok {
		return entity.Message{}, errors.MalformedRecord(
			fmt.Sprintf("Message %s has no valid %s timestamp", id, fieldCreateAt),
			fmt.Errorf("unexpected %s value %T", fieldCreateAt, data[fieldCreateAt]),
		)
	}

	text, _ := data[fieldText].(string)
	userData, _ := data[fieldUser].(map[string]interface{})

	return entity.Message{
		ID:       id,
		User:     decodeUser(userData),
		Text:     text,
		CreateAt: createAt,
	}, nil
}

func decodeUser(data map[string]interface{}) entity.User {
	user := entity.User{}
	user.UserID, _ = data[fieldUserID].(string)
	user.Email, _ = data["email"].(string)
	user.Name, _ = data["name"].(string)
	user.ProfileURL, _ = data["profileUrl"].(string)
	return user
}
