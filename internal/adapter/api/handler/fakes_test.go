package handler

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
)

type memChatRepo struct {
	mu    sync.Mutex
	chats []*entity.Chat
}

func (r *memChatRepo) FindByKey(_ context.Context, key []string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []*entity.Chat
	for _, c := range r.chats {
		if slices.Equal(c.UserIDs, key) {
			found = append(found, c)
		}
	}
	return found, nil
}

func (r *memChatRepo) Create(_ context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat.ID = fmt.Sprintf("c%d", len(r.chats)+1)
	r.chats = append(r.chats, chat)
	return nil
}

func (r *memChatRepo) GetByID(_ context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

type memUserRepo struct {
	users map[string]entity.User
}

func newMemUserRepo(users ...entity.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]entity.User)}
	for _, u := range users {
		r.users[u.UserID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.users[user.UserID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return &u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) GetByIDs(_ context.Context, ids []string) ([]entity.User, error) {
	var users []entity.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *memUserRepo) List(_ context.Context, _, _ int) ([]entity.User, int64, error) {
	var users []entity.User
	for _, u := range r.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b entity.User) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return users, int64(len(users)), nil
}

func (r *memUserRepo) UpdateProfileURL(_ context.Context, id, profileURL string) error {
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.ProfileURL = profileURL
	r.users[id] = u
	return nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages map[string][]entity.Message
	next     int
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: make(map[string][]entity.Message)}
}

func (r *memMessageRepo) ListByChat(_ context.Context, chatID string) ([]entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Message(nil), r.messages[chatID]...), nil
}

func (r *memMessageRepo) Create(_ context.Context, chatID string, data entity.FirestoreMessageData) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	m := data.WithID(fmt.Sprintf("m%d", r.next))
	r.messages[chatID] = append(r.messages[chatID], m)
	return &m, nil
}

func (r *memMessageRepo) Subscribe(ctx context.Context, _ string) (repository.MessageSubscription, error) {
	return &idleSubscription{ctx: ctx}, nil
}

// idleSubscription never reports changes and ends with its context.
type idleSubscription struct {
	ctx context.Context
}

func (s *idleSubscription) Next() ([]entity.MessageChange, error) {
	<-s.ctx.Done()
	return nil, repository.ErrSubscriptionStopped
}

func (s *idleSubscription) Stop() {}
