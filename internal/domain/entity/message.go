package entity

import "time"

type Message struct {
	ID       string    `json:"id"`
	User     User      `json:"user"`
	Text     string    `json:"text"`
	CreateAt time.Time `json:"create_at"`
}

// FirestoreMessageData is the persisted part of a Message; the id is assigned by the store.
type FirestoreMessageData struct {
	Text     string    `firestore:"text"`
	User     User      `firestore:"user"`
	CreateAt time.Time `firestore:"createAt"`
}

func (d FirestoreMessageData) WithID(id string) Message {
	return Message{
		ID:       id,
		User:     d.User,
		Text:     d.Text,
		CreateAt: d.CreateAt,
	}
}

type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MessageChange is one entry of a live change notification.
type MessageChange struct {
	Kind    ChangeKind
	Message Message
}
