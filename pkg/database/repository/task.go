package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/models"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnqueueResult reports the outcome of an enqueue call.
type EnqueueResult struct {
	TaskID      int64
	WasDuplicate bool
	Status      types.TaskStatus
}

// TaskRepository defines data access for the durable task queue (TQ,
// spec.md §4.1).
type TaskRepository interface {
	Enqueue(ctx context.Context, task *types.Task) (*EnqueueResult, error)
	LeaseNext(ctx context.Context) (*types.Task, error)
	Complete(ctx context.Context, taskID, itemID int64) error
	Fail(ctx context.Context, taskID int64, errMsg string, replyID *int64) error
	SetErrorReplyID(ctx context.Context, taskID int64, replyID *int64) error
	FindByID(ctx context.Context, id int64) (*types.Task, error)
	LatestBySubmission(ctx context.Context, botChatID, botMessageID int64) (*types.Task, error)
	SiblingsByGroup(ctx context.Context, botChatID int64, tgGroupID string) ([]types.Task, error)
	ActiveAlbumGroups(ctx context.Context) ([]AlbumGroup, error)
	DeleteByItemID(ctx context.Context, itemID int64) error
}

// AlbumGroup identifies one in-flight media-group album awaiting
// reconciliation by the album sweep (pkg/worker/sweep.go).
type AlbumGroup struct {
	BotChatID int64
	GroupID   string
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func taskModelToType(m *models.Task) (*types.Task, error) {
	var payload types.TaskPayload
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal task payload: %w", err)
		}
	}
	return &types.Task{
		ID:              m.ID,
		BotChatID:       m.BotChatID,
		BotMessageID:    m.BotMessageID,
		SourceChatID:    m.SourceChatID,
		SourceMessageID: m.SourceMessageID,
		SourceUserID:    m.SourceUserID,
		Status:          types.TaskStatus(m.Status),
		Payload:         payload,
		ItemID:          m.ItemID,
		ErrorMessage:    m.ErrorMessage,
		ErrorReplyID:    m.ErrorReplyID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

// Enqueue inserts a task row, ignoring duplicates on (bot_chat_id,
// bot_message_id): "Duplicate returns the pre-existing row's status without
// mutation" (spec.md §4.1).
func (r *taskRepository) Enqueue(ctx context.Context, task *types.Task) (*EnqueueResult, error) {
	payloadJSON, err := json.Marshal(task.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}

	m := &models.Task{
		BotChatID:       task.BotChatID,
		BotMessageID:    task.BotMessageID,
		SourceChatID:    task.SourceChatID,
		SourceMessageID: task.SourceMessageID,
		SourceUserID:    task.SourceUserID,
		Status:          string(types.TaskPending),
		Payload:         datatypes.JSON(payloadJSON),
	}

	var result EnqueueResult
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Task
		err := tx.Where("bot_chat_id = ? AND bot_message_id = ?", task.BotChatID, task.BotMessageID).
			First(&existing).Error
		if err == nil {
			result = EnqueueResult{TaskID: existing.ID, WasDuplicate: true, Status: types.TaskStatus(existing.Status)}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(m).Error; err != nil {
			return err
		}
		result = EnqueueResult{TaskID: m.ID, WasDuplicate: false, Status: types.TaskPending}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// LeaseNext atomically selects the oldest pending task and marks it
// processing, using a row-level lock that skips already-locked rows so that
// N concurrent leasers never return the same row (spec.md §4.1, §8 "Lease
// exclusivity").
func (r *taskRepository) LeaseNext(ctx context.Context) (*types.Task, error) {
	var leased *types.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Task
		err := tx.Raw(`
			SELECT * FROM tasks
			WHERE status = ?
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, string(types.TaskPending)).Scan(&m).Error
		if err != nil {
			return err
		}
		if m.ID == 0 {
			return nil // no pending task available
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", m.ID).
			Update("status", string(types.TaskProcessing)).Error; err != nil {
			return err
		}
		m.Status = string(types.TaskProcessing)

		leased, err = taskModelToType(&m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return leased, nil
}

// Complete marks a task completed and attaches the resulting item id.
func (r *taskRepository) Complete(ctx context.Context, taskID, itemID int64) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":         string(types.TaskCompleted),
			"item_id":        itemID,
			"error_message":  nil,
			"error_reply_id": nil,
		}).Error
}

// Fail marks a task failed, recording the stringified error and an optional
// feedback-message id for idempotent edit-on-retry (spec.md §4.3).
func (r *taskRepository) Fail(ctx context.Context, taskID int64, errMsg string, replyID *int64) error {
	updates := map[string]interface{}{
		"status":        string(types.TaskFailed),
		"error_message": errMsg,
	}
	if replyID != nil {
		updates["error_reply_id"] = *replyID
	}
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).Updates(updates).Error
}

// SetErrorReplyID persists the feedback-message id without changing status.
func (r *taskRepository) SetErrorReplyID(ctx context.Context, taskID int64, replyID *int64) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).
		Update("error_reply_id", replyID).Error
}

// FindByID retrieves a task by its id.
func (r *taskRepository) FindByID(ctx context.Context, id int64) (*types.Task, error) {
	var m models.Task
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return taskModelToType(&m)
}

// LatestBySubmission resolves submission coordinates to the most recently
// created task (spec.md §4.5 ETR step 1: "ORDER BY id DESC LIMIT 1").
func (r *taskRepository) LatestBySubmission(ctx context.Context, botChatID, botMessageID int64) (*types.Task, error) {
	var m models.Task
	err := r.db.WithContext(ctx).
		Where("bot_chat_id = ? AND bot_message_id = ?", botChatID, botMessageID).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return taskModelToType(&m)
}

// SiblingsByGroup returns every task sharing an album id within one bot chat
// (spec.md §4.4 Album Coordinator).
func (r *taskRepository) SiblingsByGroup(ctx context.Context, botChatID int64, tgGroupID string) ([]types.Task, error) {
	var models_ []models.Task
	err := r.db.WithContext(ctx).Raw(`
		SELECT * FROM tasks
		WHERE bot_chat_id = ? AND payload->>'tg_group_id' = ?
		ORDER BY bot_message_id ASC
	`, botChatID, tgGroupID).Scan(&models_).Error
	if err != nil {
		return nil, err
	}
	tasks := make([]types.Task, 0, len(models_))
	for i := range models_ {
		t, err := taskModelToType(&models_[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// ActiveAlbumGroups returns every (bot_chat_id, tg_group_id) pair with at
// least one sibling still pending or processing, for the periodic
// album-reconciliation sweep to re-pin reactions on (supplementing AC,
// grounded on worker.rs's periodic reconciliation pass).
func (r *taskRepository) ActiveAlbumGroups(ctx context.Context) ([]AlbumGroup, error) {
	var rows []AlbumGroup
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT bot_chat_id AS "bot_chat_id", payload->>'tg_group_id' AS "group_id"
		FROM tasks
		WHERE payload->>'tg_group_id' IS NOT NULL
		  AND status IN (?, ?)
	`, string(types.TaskPending), string(types.TaskProcessing)).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByItemID removes every task referencing an item (deletion flow,
// spec.md §4.8).
func (r *taskRepository) DeleteByItemID(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.Task{}).Error
}
