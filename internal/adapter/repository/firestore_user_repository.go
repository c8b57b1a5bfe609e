package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/samber/lo"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"duochat/internal/domain/entity"
	"duochat/internal/domain/repository"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

// Firestore caps the number of values in an "in" filter.
const maxInValues = 30

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := r.client.Collection(usersCollection).Doc(user.UserID).Set(ctx, user)
	if err != nil {
		return errors.StoreUnavailable("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.StoreUnavailable("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.MalformedRecord("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	iter := r.client.Collection(usersCollection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("User", nil)
		}
		return nil, errors.StoreUnavailable("Failed to query user by email", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.MalformedRecord("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	var users []entity.User
	for _, chunk := range lo.Chunk(lo.Uniq(ids), maxInValues) {
		docs, err := r.client.Collection(usersCollection).Where(fieldUserID, "in", chunk).Documents(ctx).GetAll()
		if err != nil {
			logger.Error("Firestore error while fetching users %v: %v", chunk, err)
			return nil, errors.StoreUnavailable("Failed to fetch users", err)
		}

		for _, doc := range docs {
			var user entity.User
			if err := doc.DataTo(&user); err != nil {
				return nil, errors.MalformedRecord("Failed to parse user data", err)
			}
			users = append(users, user)
		}
	}

	// Keep the caller's order so Chat.Users lines up with Chat.UserIDs.
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := position[id]; !ok {
			position[id] = i
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		return position[users[i].UserID] < position[users[j].UserID]
	})

	return users, nil
}

func (r *firestoreUserRepository) List(ctx context.Context, limit, offset int) ([]entity.User, int64, error) {
	allDocs, err := r.client.Collection(usersCollection).OrderBy("name", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing users: %v", err)
		return nil, 0, errors.StoreUnavailable("Failed to list users", err)
	}

	total := int64(len(allDocs))

	// Apply pagination in-memory
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	users := make([]entity.User, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			logger.Warn("Skipping malformed user document %s: %v", doc.Ref.ID, err)
			continue
		}
		users = append(users, user)
	}

	return users, total, nil
}

func (r *firestoreUserRepository) UpdateProfileURL(ctx context.Context, id, profileURL string) error {
	_, err := r.client.Collection(usersCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "profileUrl", Value: profileURL},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.StoreUnavailable("Failed to update profile image", err)
	}
	return nil
}
