package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/internal/domain/service"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

const maxProfileImageSize = 5 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type UserUseCase struct {
	userRepo     repository.UserRepository
	firebaseAuth FirebaseAuthClient
	files        service.FileUploadService
}

func NewUserUseCase(userRepo repository.UserRepository, firebaseAuth FirebaseAuthClient, files service.FileUploadService) *UserUseCase {
	return &UserUseCase{
		userRepo:     userRepo,
		firebaseAuth: firebaseAuth,
		files:        files,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// ListOthers pages through the directory without the caller.
func (uc *UserUseCase) ListOthers(ctx context.Context, userID string, limit, offset int) ([]entity.User, int64, error) {
	users, _, err := uc.userRepo.List(ctx, 0, 0)
	if err != nil {
		return nil, 0, err
	}

	others := lo.Filter(users, func(u entity.User, _ int) bool {
		return u.UserID != userID
	})
	total := int64(len(others))

	if offset > len(others) {
		offset = len(others)
	}
	others = others[offset:]
	if limit > 0 && len(others) > limit {
		others = others[:limit]
	}

	return others, total, nil
}

// UpdateProfileImage stores an uploaded image and points the profile at it.
// Only jpeg, png, gif and webp content is accepted, whatever the client claims.
func (uc *UserUseCase) UpdateProfileImage(ctx context.Context, userID string, file io.Reader) (*entity.User, error) {
	if uc.files == nil {
		return nil, errors.Internal("File storage is not configured", nil)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxProfileImageSize+1))
	if err != nil {
		return nil, errors.BadRequest("Failed to read uploaded file", err)
	}
	if len(data) == 0 {
		return nil, errors.BadRequest("Uploaded file is empty", nil)
	}
	if len(data) > maxProfileImageSize {
		return nil, errors.BadRequest(fmt.Sprintf("Profile image must be at most %d MB", maxProfileImageSize>>20), nil)
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedImageTypes...) {
		return nil, errors.BadRequest(fmt.Sprintf("Unsupported image type %s", mime.String()), nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := uc.files.UploadFile(ctx, bytes.NewReader(data), mime.String(), "profiles/"+userID)
	if err != nil {
		logger.Error("UpdateProfileImage: upload failed for %s: %v", userID, err)
		return nil, errors.Internal("Failed to upload profile image", err)
	}

	if err := uc.userRepo.UpdateProfileURL(ctx, userID, url); err != nil {
		return nil, err
	}

	if err := uc.firebaseAuth.UpdatePhotoURL(ctx, userID, url); err != nil {
		logger.Warn("UpdateProfileImage: auth profile of %s not updated: %v", userID, err)
	}

	if user.ProfileURL != "" && user.ProfileURL != url {
		if err := uc.files.DeleteFile(ctx, user.ProfileURL); err != nil {
			logger.Warn("UpdateProfileImage: old image of %s not deleted: %v", userID, err)
		}
	}

	user.ProfileURL = url
	logger.Info("Profile image of %s updated", userID)
	return user, nil
}
