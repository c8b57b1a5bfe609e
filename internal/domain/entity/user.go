package entity

// User is a read-only snapshot of a record in the user directory.
type User struct {
	UserID     string `json:"user_id" firestore:"userId"`
	Email      string `json:"email" firestore:"email"`
	Name       string `json:"name" firestore:"name"`
	ProfileURL string `json:"profile_url,omitempty" firestore:"profileUrl,omitempty"`
}
