package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"

	// Local Packages
	models "bankfeed/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultListName = "push:dead-letters"
	DefaultMaxLen   = 1000
)

// DeadLetterQueue keeps the most recent undecodable push payloads in a capped Redis list,
// newest at the head.
type DeadLetterQueue struct {
	client   redis.Cmdable
	logger   *zap.Logger
	listName string
	maxLen   int64
}

func NewDeadLetterQueue(client redis.Cmdable, logger *zap.Logger, listName string, maxLen int64) *DeadLetterQueue {
	if listName == "" {
		listName = DefaultListName
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &DeadLetterQueue{client: client, logger: logger.Named("dlq"), listName: listName, maxLen: maxLen}
}

// Send pushes letters onto the list and trims it to the configured length in one round trip.
func (q *DeadLetterQueue) Send(ctx context.Context, letters []models.DeadLetter) error {
	values := q.encode(letters)
	if len(values) == 0 {
		return nil
	}

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, q.listName, values...)
		pipe.LTrim(ctx, q.listName, 0, q.maxLen-1)
		return nil
	})
	if err != nil {
		return err
	}

	q.logger.Debug("sent dead letters", zap.Int("count", len(values)))
	return nil
}

// List returns up to n letters, newest first.
func (q *DeadLetterQueue) List(ctx context.Context, n int64) ([]models.DeadLetter, error) {
	if n <= 0 {
		n = q.maxLen
	}
	raw, err := q.client.LRange(ctx, q.listName, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	letters := make([]models.DeadLetter, 0, len(raw))
	for _, item := range raw {
		var letter models.DeadLetter
		if err := json.Unmarshal([]byte(item), &letter); err != nil {
			q.logger.Warn("skipping malformed dead letter", zap.Error(err))
			continue
		}
		letters = append(letters, letter)
	}
	return letters, nil
}

// encode marshals letters oldest first, so after LPUSH the newest letter is at the head.
func (q *DeadLetterQueue) encode(letters []models.DeadLetter) []any {
	values := make([]any, 0, len(letters))
	for _, letter := range letters {
		data, err := json.Marshal(letter)
		if err != nil {
			q.logger.Error("failed to marshal dead letter", zap.String("topic", letter.Topic), zap.Error(err))
			continue
		}
		values = append(values, string(data))
	}
	return values
}
