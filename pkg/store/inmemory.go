package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// NewInMemoryStore returns a new in-memory store. It is safe for concurrent
// use and meant for tests and ephemeral runs; nothing survives the process.
func NewInMemoryStore() Store {
	return &inMemory{
		batches: make(map[int64]*memBatch),
	}
}

type memBatch struct {
	batch   Batch
	records []Record
}

type inMemory struct {
	mu         sync.Mutex
	items      []*QueueItem
	nextItemID int64

	batches      map[int64]*memBatch
	nextBatchID  int64
	nextRecordID int64
}

func (s *inMemory) Add(ctx context.Context, inputRef string, priority int) (QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item := &QueueItem{
		ID:        s.nextItemID,
		InputRef:  inputRef,
		Status:    StatusPending,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
	s.items = append(s.items, item)
	return *item, nil
}

func (s *inMemory) ClaimPending(ctx context.Context, limit int) ([]QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*QueueItem
	for _, it := range s.items {
		if it.Status == StatusPending {
			pending = append(pending, it)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	now := time.Now()
	claimed := make([]QueueItem, len(pending))
	for i, it := range pending {
		it.Status = StatusProcessing
		t := now
		it.StartedAt = &t
		claimed[i] = *it
	}
	return claimed, nil
}

func (s *inMemory) MarkSucceeded(ctx context.Context, id int64) error {
	return s.mark(id, StatusCompleted, "")
}

func (s *inMemory) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return s.mark(id, StatusFailed, errMsg)
}

func (s *inMemory) mark(id int64, to Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.find(id)
	if it == nil {
		return NotFoundError(fmt.Sprintf("input %d", id))
	}
	if it.Status == to {
		return nil
	}
	if it.Status != StatusProcessing {
		return InvalidTransitionError{ID: id, From: it.Status, To: to}
	}
	now := time.Now()
	it.Status = to
	it.CompletedAt = &now
	it.ErrorMessage = errMsg
	return nil
}

func (s *inMemory) find(id int64) *QueueItem {
	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (s *inMemory) List(ctx context.Context, status Status, limit int) ([]QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []QueueItem
	for _, it := range s.items {
		if status == "" || it.Status == status {
			res = append(res, *it)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *inMemory) Clear(ctx context.Context, status Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*QueueItem
	deleted := 0
	for _, it := range s.items {
		if status == "" || it.Status == status {
			deleted++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return deleted, nil
}

func (s *inMemory) ResetFailed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset := 0
	for _, it := range s.items {
		if it.Status == StatusFailed {
			it.Status = StatusPending
			it.StartedAt = nil
			it.CompletedAt = nil
			it.ErrorMessage = ""
			reset++
		}
	}
	return reset, nil
}

func (s *inMemory) CreateBatch(ctx context.Context, sourceFile string, records []Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBatchID++
	b := &memBatch{
		batch: Batch{
			ID:          s.nextBatchID,
			SourceFile:  sourceFile,
			Status:      BatchCompleted,
			RecordCount: len(records),
			CreatedAt:   time.Now(),
		},
	}
	for _, r := range records {
		s.nextRecordID++
		r.ID = s.nextRecordID
		r.BatchID = b.batch.ID
		b.records = append(b.records, r)
	}
	s.batches[b.batch.ID] = b
	return b.batch.ID, nil
}

func (s *inMemory) GetBatch(ctx context.Context, id int64) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.batches[id]
	if !exists {
		return Batch{}, NotFoundError(fmt.Sprintf("batch %d", id))
	}
	return b.batch, nil
}

func (s *inMemory) FinalizeBatch(ctx context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.batches[id]
	if !exists {
		return 0, NotFoundError(fmt.Sprintf("batch %d", id))
	}
	finalized := 0
	for i := range b.records {
		if !b.records[i].Finalized {
			b.records[i].Finalized = true
			finalized++
		}
	}
	b.batch.Status = BatchFinalized
	return finalized, nil
}

func (s *inMemory) Close() error {
	return nil
}
