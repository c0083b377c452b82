package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot/internal/domain/models"
)

func TestChunkLogLateSubscriberSeesEverything(t *testing.T) {
	log := newChunkLog()
	log.append(models.UIChunk{Type: models.ChunkStart})
	log.append(models.UIChunk{Type: models.ChunkTextDelta, Delta: "hi"})

	late := log.subscribe()
	log.append(models.UIChunk{Type: models.ChunkFinish})
	log.finish()

	var got []string
	for {
		c, ok := late.Next(context.Background())
		if !ok {
			break
		}
		got = append(got, c.Type)
	}

	assert.Equal(t, []string{models.ChunkStart, models.ChunkTextDelta, models.ChunkFinish}, got)
}

func TestChunkLogNextWaitsForAppend(t *testing.T) {
	log := newChunkLog()
	sub := log.subscribe()

	go func() {
		time.Sleep(10 * time.Millisecond)
		log.append(models.UIChunk{Type: models.ChunkStart})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, ok := sub.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, models.ChunkStart, c.Type)
}

func TestChunkLogClosedSubscription(t *testing.T) {
	log := newChunkLog()
	log.append(models.UIChunk{Type: models.ChunkStart})

	sub := log.subscribe()
	sub.Close()
	_, ok := sub.Next(context.Background())
	assert.False(t, ok, "closed subscription returned a chunk")

	// Appends after finish are dropped
	log.finish()
	log.append(models.UIChunk{Type: models.ChunkFinish})
	other := log.subscribe()
	n := 0
	for {
		if _, ok := other.Next(context.Background()); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
}

func TestChunkLogNextHonorsContext(t *testing.T) {
	sub := newChunkLog().subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := sub.Next(ctx)
	assert.False(t, ok, "Next returned a chunk after cancel")
}
