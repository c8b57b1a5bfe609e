package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

// SessionState is a point-in-time copy of a ChatSession. The loading flags are
// independent and may be set at the same time.
type SessionState struct {
	Chat            *entity.Chat
	Messages        []entity.Message
	LoadingChat     bool
	LoadingMessages bool
	Sending         bool
	FeedErr         error
}

type ChatSessionOption func(*ChatSession)

// WithOnMessages registers a callback for every batch of newly merged
// messages, newest first. It may be called from several goroutines.
func WithOnMessages(fn func([]entity.Message)) ChatSessionOption {
	return func(s *ChatSession) {
		s.onMessages = fn
	}
}

// WithOnResolved registers a callback for the chat picked by Start, called
// before any of its messages are delivered.
func WithOnResolved(fn func(*entity.Chat)) ChatSessionOption {
	return func(s *ChatSession) {
		s.onResolved = fn
	}
}

// WithOnFeedError registers a callback for a live feed that ended abnormally.
func WithOnFeedError(fn func(error)) ChatSessionOption {
	return func(s *ChatSession) {
		s.onFeedError = fn
	}
}

// ChatSession resolves the chat for a participant set, loads its history,
// follows its live feed, and sends messages into it.
type ChatSession struct {
	chats       *ChatUseCase
	messages    *MessageUseCase
	feed        *MessageFeed
	onResolved  func(*entity.Chat)
	onMessages  func([]entity.Message)
	onFeedError func(error)

	mu              sync.Mutex
	participantIDs  []string
	chat            *entity.Chat
	loadingChat     bool
	loadingMessages bool
	sending         int
	feedErr         error
	cancel          context.CancelFunc
	done            chan struct{}
	// started is set from the first Start until it fails or Switch resets it.
	started bool
	closed  bool
}

func NewChatSession(chats *ChatUseCase, messages *MessageUseCase, participantIDs []string, opts ...ChatSessionOption) *ChatSession {
	s := &ChatSession{
		chats:          chats,
		messages:       messages,
		feed:           NewMessageFeed(),
		participantIDs: append([]string(nil), participantIDs...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the chat, then loads history and subscribes to the live feed
// concurrently. The feed keeps running after ctx ends, until Close or Switch.
// A session starts once; use Switch to move it to another participant set.
func (s *ChatSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.Conflict("Chat session is closed")
	}
	if s.started {
		s.mu.Unlock()
		return errors.Conflict("Chat session already started")
	}
	s.started = true
	participants := s.participantIDs
	s.loadingChat = true
	s.mu.Unlock()

	chat, err := s.chats.ResolveOrCreate(ctx, participants)

	s.mu.Lock()
	s.loadingChat = false
	if err != nil {
		s.started = false
		s.mu.Unlock()
		return err
	}
	s.chat = chat
	s.loadingMessages = true
	s.mu.Unlock()

	if s.onResolved != nil {
		s.onResolved(chat)
	}

	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	var (
		history []entity.Message
		sub     repository.MessageSubscription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.setLoadingMessages(false)
		msgs, err := s.messages.LoadHistory(gctx, chat.ID)
		if err != nil {
			return err
		}
		history = s.feed.MergeHistory(msgs)
		return nil
	})
	g.Go(func() error {
		var err error
		sub, err = s.messages.Subscribe(feedCtx, chat.ID)
		return err
	})

	if err := g.Wait(); err != nil {
		cancel()
		if sub != nil {
			sub.Stop()
		}
		s.feed.Reset()
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		logger.Error("ChatSession: failed to start chat %s: %v", chat.ID, err)
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		sub.Stop()
		return errors.Conflict("Chat session is closed")
	}
	s.cancel = cancel
	s.done = done
	s.feedErr = nil
	s.mu.Unlock()

	if len(history) > 0 && s.onMessages != nil {
		s.onMessages(history)
	}

	go s.listen(feedCtx, sub, done)

	logger.Debug("ChatSession: chat %s started with %d messages", chat.ID, len(history))
	return nil
}

func (s *ChatSession) listen(ctx context.Context, sub repository.MessageSubscription, done chan struct{}) {
	defer close(done)
	// Stop must not run concurrently with Next, so the pump owns it.
	defer sub.Stop()

	if err := s.feed.Listen(ctx, sub, s.onMessages); err != nil {
		s.mu.Lock()
		s.feedErr = err
		s.mu.Unlock()
		if s.onFeedError != nil {
			s.onFeedError(err)
		}
	}
}

// Send appends text to the resolved chat and merges the stored message into
// local state. The later live-feed echo of the same message is dropped by id.
func (s *ChatSession) Send(ctx context.Context, text string, author entity.User) (*entity.Message, error) {
	s.mu.Lock()
	chat := s.chat
	if chat == nil || chat.ID == "" {
		s.mu.Unlock()
		return nil, errors.UnresolvedChat()
	}
	if !chat.HasParticipant(author.UserID) {
		s.mu.Unlock()
		return nil, errors.Forbidden("Author is not a participant of this chat", nil)
	}
	s.sending++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending--
		s.mu.Unlock()
	}()

	message, err := s.messages.Append(ctx, chat.ID, text, author)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	current := s.chat
	s.mu.Unlock()
	if current == nil || current.ID != chat.ID {
		// The session switched rooms while the write was in flight.
		return message, nil
	}

	if merged := s.feed.Prepend(*message); len(merged) > 0 && s.onMessages != nil {
		s.onMessages(merged)
	}
	return message, nil
}

// Switch tears down the current feed and state and starts over with a new
// participant set.
func (s *ChatSession) Switch(ctx context.Context, participantIDs []string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.Conflict("Chat session is closed")
	}
	if s.started && s.cancel == nil {
		s.mu.Unlock()
		return errors.Conflict("Chat session is still starting")
	}
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.started = false
	s.chat = nil
	s.feedErr = nil
	s.participantIDs = append([]string(nil), participantIDs...)
	s.mu.Unlock()

	stopFeed(cancel, done)
	s.feed.Reset()

	return s.Start(ctx)
}

// Close stops the live feed and waits for it to finish. It is safe to call more than once.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	stopFeed(cancel, done)
}

func stopFeed(cancel context.CancelFunc, done chan struct{}) {
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *ChatSession) Chat() *entity.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

func (s *ChatSession) Messages() []entity.Message {
	return s.feed.Messages()
}

func (s *ChatSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Chat:            s.chat,
		Messages:        s.feed.Messages(),
		LoadingChat:     s.loadingChat,
		LoadingMessages: s.loadingMessages,
		Sending:         s.sending > 0,
		FeedErr:         s.feedErr,
	}
}

func (s *ChatSession) setLoadingMessages(v bool) {
	s.mu.Lock()
	s.loadingMessages = v
	s.mu.Unlock()
}
