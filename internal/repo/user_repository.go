package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MBSciTech/EcoChat/internal/db"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrInvalidUserID = errors.New("invalid user ID: cannot be empty")

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

type UserRepository interface {
	InsertUser(ctx context.Context, user *model.User) (string, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	UpdatePresence(ctx context.Context, userID, status string, lastSeen time.Time) error
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *userRepository) InsertUser(ctx context.Context, user *model.User) (string, error) {
	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Create(ctx, *user)
	if err != nil {
		return "", fmt.Errorf("insert user failed: %w", err)
	}

	insertedID := ""
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		insertedID = oid.Hex()
		user.ID = oid
	}
	return insertedID, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("email", email).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectIDs := lo.FilterMap(ids, func(id string, _ int) (primitive.ObjectID, bool) {
		oid, err := primitive.ObjectIDFromHex(id)
		return oid, err == nil
	})

	users, err := r.mongoRepo.FindAll(ctx, db.NewFilter().In("_id", objectIDs).Build())
	if err != nil {
		return nil, fmt.Errorf("find users failed: %w", err)
	}
	return users, nil
}

// UpdatePresence flips the persisted presence of a user. Callers treat a
// failure as best-effort: it is logged and never blocks connection state.
func (r *userRepository) UpdatePresence(ctx context.Context, userID, status string, lastSeen time.Time) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateByID(ctx, userID, bson.M{
		"status":    status,
		"last_seen": lastSeen,
	})
	if err != nil {
		r.logger.Warn("presence update failed",
			zap.String("user_id", userID),
			zap.String("status", status),
			zap.Error(err),
		)
		return fmt.Errorf("update presence failed: %w", err)
	}
	return nil
}

func (r *userRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
