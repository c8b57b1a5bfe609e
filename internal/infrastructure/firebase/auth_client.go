package firebase

import (
	"context"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
)

type FirebaseAuthClient struct {
	client     *auth.Client
	apiKey     string
	httpClient *http.Client
	// Base URLs of the Identity Toolkit and Secure Token REST APIs.
	identityURL string
	tokenURL    string
}

func NewFirebaseAuthClient(client *auth.Client, apiKey string) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:      client,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		identityURL: "https://identitytoolkit.googleapis.com/v1",
		tokenURL:    "https://securetoken.googleapis.com/v1",
	}
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", err
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

func (f *FirebaseAuthClient) UpdatePhotoURL(ctx context.Context, uid, photoURL string) error {
	params := (&auth.UserToUpdate{}).
		PhotoURL(photoURL)

	_, err := f.client.UpdateUser(ctx, uid, params)
	return err
}
