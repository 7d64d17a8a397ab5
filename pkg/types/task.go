package types

import "time"

// TaskStatus is the strict pending -> processing -> {completed, failed}
// lifecycle of a Task (spec.md §3 "Task").
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// TaskPayload is the opaque JSON document captured at submission time.
type TaskPayload struct {
	FileID      string         `json:"file_id,omitempty"`
	ItemType    ItemType       `json:"item_type"`
	ContentText string         `json:"content_text,omitempty"`
	TgGroupID   string         `json:"tg_group_id,omitempty"`
	TagIDs      []int32        `json:"tag_ids,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Task is the durable submission record drained by the worker pool
// (spec.md §3 "Task", §4.1).
type Task struct {
	ID              int64
	BotChatID       int64
	BotMessageID    int64
	SourceChatID    int64
	SourceMessageID int64
	SourceUserID    *int64
	Status          TaskStatus
	Payload         TaskPayload
	ItemID          *int64
	ErrorMessage    *string
	ErrorReplyID    *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
