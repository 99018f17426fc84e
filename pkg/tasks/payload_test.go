package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickPayload_UniqueID(t *testing.T) {
	assert.Equal(t, "import:tick", TickPayload{}.UniqueID())
	assert.Equal(t, "import:tick:example.myshopify.com", TickPayload{Shop: "example.myshopify.com"}.UniqueID())

	// Stable across enqueue times so duplicates collapse
	a := TickPayload{Shop: "s", EnqueuedAt: time.Now()}
	b := TickPayload{Shop: "s", EnqueuedAt: time.Now().Add(time.Hour)}
	assert.Equal(t, a.UniqueID(), b.UniqueID())
}

func TestTickPayload_QueueName(t *testing.T) {
	assert.Equal(t, QueueImport, TickPayload{Shop: "anything"}.QueueName())
}
