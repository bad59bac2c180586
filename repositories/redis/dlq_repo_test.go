package redis

import (
	// Go Internal Packages
	"encoding/json"
	"testing"
	"time"

	// Local Packages
	models "bankfeed/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	q := NewDeadLetterQueue(nil, zap.NewNop(), "", 0)
	assert.Equal(t, DefaultListName, q.listName)
	assert.EqualValues(t, DefaultMaxLen, q.maxLen)
}

func TestEncodeKeepsOrder(t *testing.T) {
	q := NewDeadLetterQueue(nil, zap.NewNop(), "dlq", 10)
	at := time.Date(2025, 8, 16, 22, 44, 9, 0, time.UTC)
	values := q.encode([]models.DeadLetter{
		{Topic: "/topic/transactions", Payload: "{bad", Reason: "malformed JSON", ReceivedAt: at},
		{Topic: "/topic/notifications", Payload: "", Reason: "empty payload", ReceivedAt: at},
	})
	require.Len(t, values, 2)

	var first models.DeadLetter
	require.NoError(t, json.Unmarshal([]byte(values[0].(string)), &first))
	assert.Equal(t, "/topic/transactions", first.Topic)
	assert.Equal(t, "{bad", first.Payload)
	assert.True(t, at.Equal(first.ReceivedAt))
}
