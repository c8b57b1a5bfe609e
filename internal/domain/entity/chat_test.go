package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatKey(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "already sorted", input: []string{"u1", "u2"}, expected: []string{"u1", "u2"}},
		{name: "reversed", input: []string{"u2", "u1"}, expected: []string{"u1", "u2"}},
		{name: "three participants", input: []string{"zed", "amy", "kim"}, expected: []string{"amy", "kim", "zed"}},
		{name: "byte order not locale order", input: []string{"b", "B", "a"}, expected: []string{"B", "a", "b"}},
		{name: "empty", input: []string{}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChatKey(tt.input))
		})
	}
}

func TestChatKey_SymmetricAndPure(t *testing.T) {
	a := []string{"u2", "u1"}
	b := []string{"u1", "u2"}

	assert.Equal(t, ChatKey(a), ChatKey(b))
	assert.Equal(t, []string{"u2", "u1"}, a)
}

func TestChatHasParticipant(t *testing.T) {
	chat := &Chat{UserIDs: []string{"u1", "u2"}}

	assert.True(t, chat.HasParticipant("u1"))
	assert.True(t, chat.HasParticipant("u2"))
	assert.False(t, chat.HasParticipant("u3"))
}
