package usecase

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duochat/internal/domain/entity"
	"duochat/pkg/errors"
)

var (
	alice = entity.User{UserID: "u1", Email: "alice@example.com", Name: "Alice"}
	bob   = entity.User{UserID: "u2", Email: "bob@example.com", Name: "Bob"}
	carol = entity.User{UserID: "u3", Email: "carol@example.com", Name: "Carol"}
)

func newChatFixture() (*ChatUseCase, *fakeChatRepo) {
	chats := newFakeChatRepo()
	return NewChatUseCase(chats, newFakeUserRepo(alice, bob, carol)), chats
}

func TestResolveOrCreate_CreatesChatWithCanonicalKey(t *testing.T) {
	uc, repo := newChatFixture()

	chat, err := uc.ResolveOrCreate(context.Background(), []string{"u2", "u1"})
	require.NoError(t, err)

	assert.Equal(t, "c1", chat.ID)
	assert.Equal(t, []string{"u1", "u2"}, chat.UserIDs)
	assert.Equal(t, []entity.User{alice, bob}, chat.Users)
	assert.Equal(t, 1, repo.createCount())
}

func TestResolveOrCreate_IsIdempotentAndSymmetric(t *testing.T) {
	uc, repo := newChatFixture()
	ctx := context.Background()

	first, err := uc.ResolveOrCreate(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	second, err := uc.ResolveOrCreate(ctx, []string{"u2", "u1"})
	require.NoError(t, err)
	third, err := uc.ResolveOrCreate(ctx, []string{"u1", "u2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, 1, repo.createCount())
}

func TestResolveOrCreate_DistinctParticipantSets(t *testing.T) {
	uc, repo := newChatFixture()
	ctx := context.Background()

	ab, err := uc.ResolveOrCreate(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	ac, err := uc.ResolveOrCreate(ctx, []string{"u3", "u1"})
	require.NoError(t, err)

	assert.NotEqual(t, ab.ID, ac.ID)
	assert.Equal(t, []string{"u1", "u3"}, ac.UserIDs)
	assert.Equal(t, 2, repo.createCount())
}

func TestResolveOrCreate_DoesNotMutateInput(t *testing.T) {
	uc, _ := newChatFixture()
	ids := []string{"u2", "u1"}

	_, err := uc.ResolveOrCreate(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, []string{"u2", "u1"}, ids)
}

func TestResolveOrCreate_NeedsTwoParticipants(t *testing.T) {
	uc, repo := newChatFixture()

	for _, participants := range [][]string{nil, {"u1"}, {"u1", "u1"}} {
		_, err := uc.ResolveOrCreate(context.Background(), participants)

		require.Error(t, err, "participants %v", participants)
		assert.True(t, errors.Is(err, errors.CodeBadRequest))
	}
	assert.Equal(t, 0, repo.createCount())
}

func TestResolveOrCreate_RepeatedParticipantsCollapse(t *testing.T) {
	uc, repo := newChatFixture()
	ctx := context.Background()

	chat, err := uc.ResolveOrCreate(ctx, []string{"u2", "u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, chat.UserIDs)
	assert.Equal(t, []entity.User{alice, bob}, chat.Users)

	again, err := uc.ResolveOrCreate(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)
	assert.Equal(t, 1, repo.createCount())
}

func TestResolveOrCreate_StoreFailure(t *testing.T) {
	uc, repo := newChatFixture()
	repo.findErr = errors.StoreUnavailable("Failed to query chats", stderrors.New("deadline exceeded"))

	_, err := uc.ResolveOrCreate(context.Background(), []string{"u1", "u2"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeStoreUnavailable))
	assert.Equal(t, 0, repo.createCount())
}

func TestResolveOrCreate_CreateFailure(t *testing.T) {
	uc, repo := newChatFixture()
	repo.createErr = errors.StoreUnavailable("Failed to create chat", stderrors.New("unavailable"))

	chat, err := uc.ResolveOrCreate(context.Background(), []string{"u1", "u2"})

	require.Error(t, err)
	assert.Nil(t, chat)
	assert.True(t, errors.Is(err, errors.CodeStoreUnavailable))
}

func TestGetChat(t *testing.T) {
	uc, _ := newChatFixture()
	ctx := context.Background()

	chat, err := uc.ResolveOrCreate(ctx, []string{"u1", "u2"})
	require.NoError(t, err)

	got, err := uc.GetChat(ctx, "u2", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)

	_, err = uc.GetChat(ctx, "u3", chat.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = uc.GetChat(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
