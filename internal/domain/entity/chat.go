package entity

import "sort"

// Chat is the room shared by a fixed set of participants. UserIDs is always
// stored in canonical order so that lookups by ChatKey match exactly.
type Chat struct {
	ID      string   `json:"id" firestore:"-"`
	UserIDs []string `json:"user_ids" firestore:"userIds"`
	Users   []User   `json:"users" firestore:"users"`
}

// ChatKey returns the participant ids sorted ascending. The input is not modified.
func ChatKey(userIDs []string) []string {
	key := make([]string, len(userIDs))
	copy(key, userIDs)
	sort.Strings(key)
	return key
}

// HasParticipant reports whether userID is a member of the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
