package services

import (
	"context"

	"classmarket/backend/storage"

	"go.uber.org/zap"
)

// mediaBatch tracks relay side effects made during one database
// transaction. Uploads are undone if the transaction rolls back; released
// keys are only deleted once it has committed.
type mediaBatch struct {
	relay    storage.Relay
	log      *zap.Logger
	uploaded []string
	released []string
}

func newMediaBatch(relay storage.Relay, log *zap.Logger) *mediaBatch {
	return &mediaBatch{relay: relay, log: log}
}

func (m *mediaBatch) put(ctx context.Context, key string, blob storage.Blob) (string, error) {
	stored, err := m.relay.Upload(ctx, key, blob.Reader(), blob.ContentType)
	if err != nil {
		return "", err
	}
	m.uploaded = append(m.uploaded, stored)
	return stored, nil
}

func (m *mediaBatch) release(keys ...string) {
	for _, k := range keys {
		if k != "" {
			m.released = append(m.released, k)
		}
	}
}

// rollback removes everything uploaded so far. Failures are logged, never
// returned: the caller is already reporting the original error.
func (m *mediaBatch) rollback(ctx context.Context) {
	for _, key := range m.uploaded {
		if err := m.relay.Delete(ctx, key); err != nil {
			m.log.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
		}
	}
	m.uploaded = nil
}

func (m *mediaBatch) commit(ctx context.Context) {
	for _, key := range m.released {
		if err := m.relay.Delete(ctx, key); err != nil {
			m.log.Warn("failed to delete replaced media", zap.String("key", key), zap.Error(err))
		}
	}
	m.released = nil
}

// blobQueue hands out pending uploads left to right.
type blobQueue []storage.Blob

func (q *blobQueue) next() (storage.Blob, bool) {
	if len(*q) == 0 {
		return storage.Blob{}, false
	}
	b := (*q)[0]
	*q = (*q)[1:]
	return b, true
}
