// Package checkpoint persists per-file chunk cursors in Redis.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	// ErrConflict is returned when a compare-and-swap advance loses to a
	// concurrent tick that already moved the cursor.
	ErrConflict = errors.New("checkpoint advanced concurrently")
)

const (
	chunkKeyNamespace = "csv:chunk_index"
	// Full key pattern: {prefix}:csv:chunk_index:{fileID}
)

// advanceScript writes ARGV[2] only if the key still holds ARGV[1]
// (a missing key counts as "0"). Returns -1 on conflict.
//
//nolint:gochecknoglobals // redis.Script instances are intended to be shared
var advanceScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == false then cur = '0' end
if cur ~= ARGV[1] then return -1 end
redis.call('SET', KEYS[1], ARGV[2])
return tonumber(ARGV[2])
`)

// Store tracks how many chunks of each uploaded file have been committed.
type Store interface {
	// Get returns the committed chunk count for a file (0 when unset)
	Get(ctx context.Context, fileID string) (int, error)

	// Set overwrites the committed chunk count for a file
	Set(ctx context.Context, fileID string, n int) error

	// Advance moves the cursor from "from" to "from+1" atomically.
	// Returns ErrConflict if the cursor is no longer at "from".
	Advance(ctx context.Context, fileID string, from int) (int, error)

	// Clear removes the cursor for a file (used at rollover)
	Clear(ctx context.Context, fileID string) error
}

type redisStore struct {
	log       logrus.FieldLogger
	redis     *redis.Client
	keyPrefix string
}

// NewStore creates a Redis-backed checkpoint store. Keys live under the
// configured Redis prefix.
func NewStore(log logrus.FieldLogger, redisClient *redis.Client, cfg *r.Config) Store {
	return &redisStore{
		log:       log.WithField("component", "checkpoint"),
		redis:     redisClient,
		keyPrefix: cfg.PrefixKey(chunkKeyNamespace) + ":",
	}
}

func (s *redisStore) Get(ctx context.Context, fileID string) (int, error) {
	val, err := s.redis.Get(ctx, s.keyPrefix+fileID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get checkpoint for file %s: %w", fileID, err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("failed to parse checkpoint for file %s: %w", fileID, err)
	}

	return n, nil
}

func (s *redisStore) Set(ctx context.Context, fileID string, n int) error {
	if err := s.redis.Set(ctx, s.keyPrefix+fileID, strconv.Itoa(n), 0).Err(); err != nil {
		return fmt.Errorf("failed to set checkpoint for file %s: %w", fileID, err)
	}

	s.log.WithFields(logrus.Fields{
		"file_id":    fileID,
		"checkpoint": n,
	}).Debug("Checkpoint written")

	return nil
}

func (s *redisStore) Advance(ctx context.Context, fileID string, from int) (int, error) {
	next := from + 1

	res, err := advanceScript.Run(ctx, s.redis,
		[]string{s.keyPrefix + fileID},
		strconv.Itoa(from), strconv.Itoa(next),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to advance checkpoint for file %s: %w", fileID, err)
	}

	if res == -1 {
		return 0, fmt.Errorf("%w: file %s, expected %d", ErrConflict, fileID, from)
	}

	s.log.WithFields(logrus.Fields{
		"file_id":    fileID,
		"checkpoint": next,
	}).Debug("Checkpoint advanced")

	return next, nil
}

func (s *redisStore) Clear(ctx context.Context, fileID string) error {
	if err := s.redis.Del(ctx, s.keyPrefix+fileID).Err(); err != nil {
		return fmt.Errorf("failed to clear checkpoint for file %s: %w", fileID, err)
	}

	s.log.WithField("file_id", fileID).Debug("Checkpoint cleared")

	return nil
}

// Verify interface compliance at compile time
var _ Store = (*redisStore)(nil)
