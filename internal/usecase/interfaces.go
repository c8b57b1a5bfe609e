package usecase

import "context"

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(ctx context.Context, email, password string) (idToken string, refreshToken string, err error)
	RefreshIDToken(ctx context.Context, refreshToken string) (idToken string, newRefreshToken string, err error)
	UpdatePhotoURL(ctx context.Context, uid, photoURL string) error
}
