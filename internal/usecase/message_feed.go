package usecase

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/samber/lo"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/logger"
)

// MessageFeed is the local, newest-first mirror of a chat's messages. Every
// mutation goes through one mutex so a message id is held at most once.
type MessageFeed struct {
	mu       sync.RWMutex
	messages []entity.Message
	seen     map[string]struct{}
}

func NewMessageFeed() *MessageFeed {
	return &MessageFeed{
		seen: make(map[string]struct{}),
	}
}

// Apply merges the additions of a change set and ignores modifications and
// removals. It returns the messages that were not held before.
func (f *MessageFeed) Apply(changes []entity.MessageChange) []entity.Message {
	added := lo.FilterMap(changes, func(change entity.MessageChange, _ int) (entity.Message, bool) {
		return change.Message, change.Kind == entity.ChangeAdded
	})
	return f.Prepend(added...)
}

// Prepend puts unseen messages in front of the existing ones, keeping the
// order they were given in.
func (f *MessageFeed) Prepend(msgs ...entity.Message) []entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	fresh := f.unseen(msgs)
	if len(fresh) == 0 {
		return nil
	}

	merged := make([]entity.Message, 0, len(fresh)+len(f.messages))
	merged = append(merged, fresh...)
	merged = append(merged, f.messages...)
	f.messages = merged

	return cloneMessages(fresh)
}

// MergeHistory places unseen history behind the messages already held, which
// are newer than anything a one-shot load can return.
func (f *MessageFeed) MergeHistory(msgs []entity.Message) []entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	fresh := f.unseen(msgs)
	f.messages = append(f.messages, fresh...)

	return cloneMessages(fresh)
}

func (f *MessageFeed) unseen(msgs []entity.Message) []entity.Message {
	fresh := make([]entity.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := f.seen[m.ID]; ok {
			continue
		}
		f.seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	return fresh
}

func (f *MessageFeed) Messages() []entity.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneMessages(f.messages)
}

func (f *MessageFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.messages)
}

// Reset forgets every held message.
func (f *MessageFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
	f.seen = make(map[string]struct{})
}

// Listen applies change sets from sub until it stops or ctx is done. onMerged,
// when set, receives each non-empty batch of newly merged messages. A stopped
// subscription is a normal end and returns nil.
func (f *MessageFeed) Listen(ctx context.Context, sub repository.MessageSubscription, onMerged func([]entity.Message)) error {
	for {
		changes, err := sub.Next()
		if err != nil {
			if stderrors.Is(err, repository.ErrSubscriptionStopped) || ctx.Err() != nil {
				return nil
			}
			logger.Error("Message feed stopped: %v", err)
			return err
		}

		merged := f.Apply(changes)
		if len(merged) > 0 && onMerged != nil {
			onMerged(merged)
		}
	}
}

func cloneMessages(msgs []entity.Message) []entity.Message {
	out := make([]entity.Message, len(msgs))
	copy(out, msgs)
	return out
}
