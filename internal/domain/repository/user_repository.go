package repository

import (
	"context"

	"duochat/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIDs returns the records that exist for ids; unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]entity.User, error)
	List(ctx context.Context, limit, offset int) ([]entity.User, int64, error)
	UpdateProfileURL(ctx context.Context, id, profileURL string) error
}
