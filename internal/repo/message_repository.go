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

var (
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
	ErrInvalidMessage     = errors.New("invalid message: message cannot be nil")
	ErrInvalidGroupID     = errors.New("invalid group ID: cannot be empty")
	ErrOperationTimeout   = errors.New("operation timeout exceeded")
	ErrNotFound           = errors.New("document not found")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	historyPageSize = 15
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) (string, error)
	FindMessage(ctx context.Context, id string) (*model.Message, error)
	UpdateStatus(ctx context.Context, id string, status model.DeliveryStatus) error
	UpdateReactions(ctx context.Context, id string, reactions []model.Reaction) error
	UpdatePoll(ctx context.Context, id string, poll *model.Poll) error
	UpdateContent(ctx context.Context, id string, content string, at time.Time) error
	MarkDeleted(ctx context.Context, id string, at time.Time) error
	FindUnseen(ctx context.Context, groupID, userID string) ([]model.Message, error)
	FilterMessages(ctx context.Context, groupID string, page int64) (*db.PaginatedResult[model.Message], error)
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (string, error) {
	if err := m.validateMessage(msg); err != nil {
		return "", err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return "", err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			insertedID := ""
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid.Hex()
				msg.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("inserted_id", insertedID),
				zap.String("group_id", msg.GroupID),
				zap.Int("attempt", attempt+1),
			)
			return insertedID, nil
		}

		lastErr = err

		// Don't retry on context cancellation or non-retryable errors
		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("group_id", msg.GroupID),
	)

	return "", fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (m *messageRepository) FindMessage(ctx context.Context, id string) (*model.Message, error) {
	// a malformed id can never name a document
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		m.logger.Error("failed to fetch message", zap.String("message_id", id), zap.Error(err))
		return nil, fmt.Errorf("find message failed: %w", err)
	}
	return msg, nil
}

// FindUnseen returns every non-deleted message in the group that the user
// received but has not yet seen.
func (m *messageRepository) FindUnseen(ctx context.Context, groupID, userID string) ([]model.Message, error) {
	if err := m.validateGroupID(groupID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("group_id", groupID).
		Ne("sender_id", userID).
		Eq("deleted", false).
		Ne("status.seen."+userID, true).
		Build()

	msgs, err := m.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, m.handleReadError(err, groupID)
	}
	return msgs, nil
}

// -----------------------------------------------------------------------------
// FilterMessages - paginated history for the REST layer
// -----------------------------------------------------------------------------

func (m *messageRepository) FilterMessages(ctx context.Context, groupID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if err := m.validateGroupID(groupID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("group_id", groupID).Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying message history query",
				zap.String("group_id", groupID),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: historyPageSize,
			SortBy:   "created_at",
			SortDesc: true,
		})

		if err == nil {
			m.logger.Debug("message history fetched",
				zap.String("group_id", groupID),
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
			)
			return result, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, groupID)
}

// -----------------------------------------------------------------------------
// Partial updates - each writes one authoritative sub-document, so a retry
// after a timeout is safe.
// -----------------------------------------------------------------------------

func (m *messageRepository) UpdateStatus(ctx context.Context, id string, status model.DeliveryStatus) error {
	return m.updateFields(ctx, id, bson.M{"status": status})
}

func (m *messageRepository) UpdateReactions(ctx context.Context, id string, reactions []model.Reaction) error {
	return m.updateFields(ctx, id, bson.M{"reactions": reactions})
}

func (m *messageRepository) UpdatePoll(ctx context.Context, id string, poll *model.Poll) error {
	return m.updateFields(ctx, id, bson.M{"poll": poll})
}

func (m *messageRepository) UpdateContent(ctx context.Context, id string, content string, at time.Time) error {
	return m.updateFields(ctx, id, bson.M{"content": content, "updated_at": at})
}

func (m *messageRepository) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	return m.updateFields(ctx, id, bson.M{"deleted": true, "deleted_at": at})
}

func (m *messageRepository) updateFields(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return err
			}
		}

		result, err := m.mongoRepo.UpdateByID(ctx, id, fields)
		if err == nil {
			if result.MatchedCount == 0 {
				return ErrNotFound
			}
			return nil
		}

		lastErr = err
		if !m.isRetryableError(err) {
			break
		}
	}

	m.logger.Error("message update failed",
		zap.String("message_id", id),
		zap.Error(lastErr),
	)
	return fmt.Errorf("update message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.GroupID == "" {
		return ErrInvalidGroupID
	}
	return nil
}

func (m *messageRepository) validateGroupID(groupID string) error {
	if groupID == "" {
		return ErrInvalidGroupID
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error, groupID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("group_id", groupID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("group_id", groupID))
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // Not an error, just empty result
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("group_id", groupID))
	return fmt.Errorf("read messages failed: %w", err)
}
