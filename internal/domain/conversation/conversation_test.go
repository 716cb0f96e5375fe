package conversation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/domain/conversation"
)

func TestNewIDIsTimeOrdered(t *testing.T) {
	previous := conversation.NewID()
	for i := 0; i < 1000; i++ {
		next := conversation.NewID()
		require.Less(t, previous, next)
		previous = next
	}

	parsed, err := uuid.Parse(previous)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNextUpdatedAt(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	assert.Equal(t, future.Add(time.Microsecond), conversation.NextUpdatedAt(future))

	past := time.Now().UTC().Add(-time.Hour)
	assert.True(t, conversation.NextUpdatedAt(past).After(past))
}
