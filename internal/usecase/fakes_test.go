package usecase

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
)

type fakeChatRepo struct {
	mu        sync.Mutex
	chats     map[string]*entity.Chat
	nextID    int
	creates   int
	findErr   error
	createErr error
	// findGate, when set, blocks FindByKey until it is closed.
	findGate chan struct{}
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*entity.Chat)}
}

func (r *fakeChatRepo) FindByKey(ctx context.Context, key []string) ([]*entity.Chat, error) {
	r.mu.Lock()
	gate := r.findGate
	r.mu.Unlock()
	if err := waitGate(ctx, gate); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}

	var found []*entity.Chat
	for _, chat := range r.chats {
		if slices.Equal(chat.UserIDs, key) {
			c := *chat
			found = append(found, &c)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func (r *fakeChatRepo) Create(_ context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}

	r.nextID++
	r.creates++
	chat.ID = fmt.Sprintf("c%d", r.nextID)
	stored := *chat
	r.chats[chat.ID] = &stored
	return nil
}

func (r *fakeChatRepo) GetByID(_ context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	c := *chat
	return &c, nil
}

func (r *fakeChatRepo) createCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
	err   error
}

func newFakeUserRepo(users ...entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]entity.User)}
	for _, u := range users {
		r.users[u.UserID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.users[user.UserID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []string) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var users []entity.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	users := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })

	total := int64(len(users))
	if offset > len(users) {
		offset = len(users)
	}
	users = users[offset:]
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, total, nil
}

func (r *fakeUserRepo) UpdateProfileURL(_ context.Context, id, profileURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.ProfileURL = profileURL
	r.users[id] = u
	return nil
}

type fakeMessageRepo struct {
	mu           sync.Mutex
	messages     map[string][]entity.Message
	nextID       int
	listErr      error
	createErr    error
	subscribeErr error
	// listGate and createGate, when set, block ListByChat and Create until closed.
	listGate   chan struct{}
	createGate chan struct{}
	subs       []*fakeSubscription
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string][]entity.Message)}
}

func (r *fakeMessageRepo) ListByChat(ctx context.Context, chatID string) ([]entity.Message, error) {
	r.mu.Lock()
	gate := r.listGate
	r.mu.Unlock()
	if err := waitGate(ctx, gate); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]entity.Message(nil), r.messages[chatID]...), nil
}

func (r *fakeMessageRepo) Create(ctx context.Context, chatID string, data entity.FirestoreMessageData) (*entity.Message, error) {
	r.mu.Lock()
	gate := r.createGate
	r.mu.Unlock()
	if err := waitGate(ctx, gate); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	message := data.WithID(fmt.Sprintf("m%d", r.nextID))
	r.messages[chatID] = append(r.messages[chatID], message)
	return &message, nil
}

func (r *fakeMessageRepo) Subscribe(ctx context.Context, chatID string) (repository.MessageSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscribeErr != nil {
		return nil, r.subscribeErr
	}
	sub := newFakeSubscription(ctx, chatID)
	r.subs = append(r.subs, sub)
	return sub, nil
}

func (r *fakeMessageRepo) seed(chatID string, msgs ...entity.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[chatID] = append(r.messages[chatID], msgs...)
}

func (r *fakeMessageRepo) stored(chatID string) []entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Message(nil), r.messages[chatID]...)
}

func (r *fakeMessageRepo) lastSub() *fakeSubscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) == 0 {
		return nil
	}
	return r.subs[len(r.subs)-1]
}

type fakeSubscription struct {
	ctx      context.Context
	chatID   string
	changes  chan []entity.MessageChange
	errs     chan error
	stopped  chan struct{}
	stopOnce sync.Once
}

func newFakeSubscription(ctx context.Context, chatID string) *fakeSubscription {
	return &fakeSubscription{
		ctx:     ctx,
		chatID:  chatID,
		changes: make(chan []entity.MessageChange, 16),
		errs:    make(chan error, 1),
		stopped: make(chan struct{}),
	}
}

func (s *fakeSubscription) Next() ([]entity.MessageChange, error) {
	select {
	case changes := <-s.changes:
		return changes, nil
	case err := <-s.errs:
		return nil, err
	case <-s.stopped:
		return nil, repository.ErrSubscriptionStopped
	case <-s.ctx.Done():
		return nil, repository.ErrSubscriptionStopped
	}
}

func (s *fakeSubscription) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *fakeSubscription) push(changes ...entity.MessageChange) {
	s.changes <- changes
}

func (s *fakeSubscription) fail(err error) {
	s.errs <- err
}

func (s *fakeSubscription) isStopped() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

func waitGate(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func added(m entity.Message) entity.MessageChange {
	return entity.MessageChange{Kind: entity.ChangeAdded, Message: m}
}

type fakeAuthClient struct {
	mu        sync.Mutex
	nextUID   int
	passwords map[string]string
	uids      map[string]string
	photos    map[string]string
	createErr error
}

func newFakeAuthClient() *fakeAuthClient {
	return &fakeAuthClient{
		passwords: make(map[string]string),
		uids:      make(map[string]string),
		photos:    make(map[string]string),
	}
}

func (c *fakeAuthClient) CreateUser(_ context.Context, email, password, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return "", c.createErr
	}
	c.nextUID++
	uid := fmt.Sprintf("uid%d", c.nextUID)
	c.passwords[email] = password
	c.uids[email] = uid
	return uid, nil
}

func (c *fakeAuthClient) VerifyToken(_ context.Context, token string) (string, error) {
	var uid string
	if _, err := fmt.Sscanf(token, "id-%s", &uid); err != nil {
		return "", fmt.Errorf("invalid token %q", token)
	}
	return uid, nil
}

func (c *fakeAuthClient) SignInWithEmailPassword(_ context.Context, email, password string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.passwords[email]; !ok || p != password {
		return "", "", fmt.Errorf("INVALID_LOGIN_CREDENTIALS")
	}
	uid := c.uids[email]
	return "id-" + uid, "refresh-" + uid, nil
}

func (c *fakeAuthClient) RefreshIDToken(_ context.Context, refreshToken string) (string, string, error) {
	var uid string
	if _, err := fmt.Sscanf(refreshToken, "refresh-%s", &uid); err != nil {
		return "", "", fmt.Errorf("INVALID_REFRESH_TOKEN")
	}
	return "id-" + uid, refreshToken, nil
}

func (c *fakeAuthClient) UpdatePhotoURL(_ context.Context, uid, photoURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.photos[uid] = photoURL
	return nil
}

type fakeFileService struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	uploadCT string
}

func (f *fakeFileService) UploadFile(_ context.Context, _ io.Reader, contentType, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://storage.googleapis.com/test-bucket/%s/%d", folder, len(f.uploads)+1)
	f.uploads = append(f.uploads, url)
	f.uploadCT = contentType
	return url, nil
}

func (f *fakeFileService) DeleteFile(_ context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileURL)
	return nil
}
