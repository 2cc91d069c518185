package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MBSciTech/EcoChat/internal/db"
	"github.com/MBSciTech/EcoChat/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type groupRepository struct {
	mongoRepo *db.Repository[model.Group]
	logger    *zap.Logger
}

type GroupRepository interface {
	InsertGroup(ctx context.Context, group *model.Group) (string, error)
	FindGroup(ctx context.Context, id string) (*model.Group, error)
	GroupsForMember(ctx context.Context, userID string) ([]model.Group, error)
	UpdateMembers(ctx context.Context, id string, members, admins []string) error
}

func NewGroupRepository(repo *db.Repository[model.Group], logger *zap.Logger) GroupRepository {
	return &groupRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *groupRepository) InsertGroup(ctx context.Context, group *model.Group) (string, error) {
	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Create(ctx, *group)
	if err != nil {
		r.logger.Error("failed to insert group", zap.String("name", group.Name), zap.Error(err))
		return "", fmt.Errorf("insert group failed: %w", err)
	}

	insertedID := ""
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		insertedID = oid.Hex()
		group.ID = oid
	}

	r.logger.Info("group created",
		zap.String("group_id", insertedID),
		zap.String("created_by", group.CreatedBy),
	)
	return insertedID, nil
}

// FindGroup fetches a group document by ID.
func (r *groupRepository) FindGroup(ctx context.Context, id string) (*model.Group, error) {
	if id == "" {
		return nil, ErrInvalidGroupID
	}
	// a malformed id can never name a document
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	group, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("group not found", zap.String("group_id", id))
			return nil, ErrNotFound
		}
		r.logger.Error("failed to fetch group", zap.String("group_id", id), zap.Error(err))
		return nil, fmt.Errorf("find group failed: %w", err)
	}

	return group, nil
}

// GroupsForMember returns every group the user belongs to.
func (r *groupRepository) GroupsForMember(ctx context.Context, userID string) ([]model.Group, error) {
	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("members", userID).Build()

	groups, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to list groups", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list groups failed: %w", err)
	}

	r.logger.Debug("groups listed", zap.String("user_id", userID), zap.Int("count", len(groups)))
	return groups, nil
}

// UpdateMembers overwrites both member and admin sets in one write.
func (r *groupRepository) UpdateMembers(ctx context.Context, id string, members, admins []string) error {
	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.UpdateByID(ctx, id, bson.M{
		"members":    members,
		"admins":     admins,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		r.logger.Error("failed to update group members", zap.String("group_id", id), zap.Error(err))
		return fmt.Errorf("update group failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *groupRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
