package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"facerate-go/internal/models"

	"github.com/redis/go-redis/v9"
)

// StreamStore mirrors results into Redis streams named after the two
// collections, so downstream consumers can follow sessions as they happen.
type StreamStore struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewStreamStore(rdb redis.Cmdable, prefix string) *StreamStore {
	return &StreamStore{rdb: rdb, prefix: prefix, now: time.Now}
}

// StreamKey returns the Redis key of a collection.
func (s *StreamStore) StreamKey(collection string) string {
	return s.prefix + collection
}

func (s *StreamStore) AppendTrial(ctx context.Context, tr *models.TrialResult) error {
	row := *tr
	row.ServerTimestamp = s.now().UTC()
	return s.add(ctx, models.StreamCollection, row.ParticipantID, row)
}

func (s *StreamStore) AppendSession(ctx context.Context, sp *models.SessionPayload) error {
	row := *sp
	row.ServerTimestamp = s.now().UTC()
	return s.add(ctx, models.AggregateCollection, row.ParticipantID, row)
}

func (s *StreamStore) add(ctx context.Context, collection, participantID string, v any) error {
	values, err := streamValues(participantID, v)
	if err != nil {
		return err
	}
	err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.StreamKey(collection),
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", collection, err)
	}
	return nil
}

func streamValues(participantID string, v any) (map[string]any, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode stream entry: %w", err)
	}
	return map[string]any{
		"participant_id": participantID,
		"payload":        string(body),
	}, nil
}
