package store

import (
	"context"
	"time"
)

// QueueItem is one queued pipeline input. The queue serves as durable work
// list for parallel execution; items are claimed, processed and marked with a
// terminal status.
type QueueItem struct {
	ID           int64
	InputRef     string
	Status       Status
	Priority     int
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// Batch is a group of records produced from one source file.
type Batch struct {
	ID          int64
	SourceFile  string
	Status      string
	RecordCount int
	CreatedAt   time.Time
}

// Batch statuses.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFinalized  = "finalized"
)

// Record is a single processed record belonging to a batch.
type Record struct {
	ID        int64
	BatchID   int64
	Name      string
	Value     string
	Finalized bool
}

// QueueStore defines access to the persisted queue of pipeline inputs.
// All claim and mark operations must be atomic with respect to concurrent
// callers; mutual exclusion is the implementation's responsibility.
type QueueStore interface {
	// Add appends a new pending input to the queue.
	Add(ctx context.Context, inputRef string, priority int) (QueueItem, error)

	// ClaimPending atomically moves up to limit pending items to processing,
	// ordered by descending priority then insertion order, and returns them.
	// The same item is never returned to two concurrent callers.
	// limit <= 0 means no limit.
	ClaimPending(ctx context.Context, limit int) ([]QueueItem, error)

	// MarkSucceeded moves a processing item to completed.
	// Re-marking an item already completed is a no-op; any other status
	// yields an InvalidTransitionError.
	MarkSucceeded(ctx context.Context, id int64) error

	// MarkFailed moves a processing item to failed, recording the error.
	// Re-marking an item already failed is a no-op; any other status yields
	// an InvalidTransitionError.
	MarkFailed(ctx context.Context, id int64, errMsg string) error

	// List returns up to limit items with the given status, most recent
	// first. An empty status selects all items; limit <= 0 means no limit.
	List(ctx context.Context, status Status, limit int) ([]QueueItem, error)

	// Clear deletes all items with the given status and returns how many
	// were deleted. An empty status deletes everything.
	Clear(ctx context.Context, status Status) (int, error)

	// ResetFailed moves all failed items back to pending and returns how
	// many were reset.
	ResetFailed(ctx context.Context) (int, error)
}

// BatchStore persists processed batches and their records.
type BatchStore interface {
	// CreateBatch stores a batch with its records in one transaction and
	// returns the batch ID. The stored batch has status completed and its
	// record count set.
	CreateBatch(ctx context.Context, sourceFile string, records []Record) (int64, error)

	// GetBatch returns the batch with the given ID.
	GetBatch(ctx context.Context, id int64) (Batch, error)

	// FinalizeBatch marks all records of the batch finalized, sets the batch
	// status to finalized and returns the number of records flipped.
	FinalizeBatch(ctx context.Context, id int64) (int, error)
}

// Store combines the queue and batch stores behind one backend.
type Store interface {
	QueueStore
	BatchStore

	// Close releases the backend resources.
	Close() error
}
