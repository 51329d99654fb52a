package presence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

type recordingHandler struct {
	connects    []uuid.UUID
	disconnects []uuid.UUID
	err         error
}

func (h *recordingHandler) HandleConnect(ctx context.Context, id uuid.UUID) error {
	h.connects = append(h.connects, id)
	return h.err
}

func (h *recordingHandler) HandleDisconnect(ctx context.Context, id uuid.UUID) error {
	h.disconnects = append(h.disconnects, id)
	return h.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTracker_OnlineSet(t *testing.T) {
	tr := NewTracker(testLogger())
	id := uuid.New()
	ctx := context.Background()

	assert.False(t, tr.Online(id))
	tr.Connect(ctx, id)
	assert.True(t, tr.Online(id))
	assert.Equal(t, 1, tr.Count())

	tr.Disconnect(ctx, id)
	assert.False(t, tr.Online(id))
	assert.Equal(t, 0, tr.Count())
}

func TestTracker_NotifiesHandlersInOrder(t *testing.T) {
	tr := NewTracker(testLogger())
	first := &recordingHandler{}
	second := &recordingHandler{err: errors.New("boom")}
	third := &recordingHandler{}
	tr.Subscribe(first)
	tr.Subscribe(second)
	tr.Subscribe(third)

	id := uuid.New()
	tr.Connect(context.Background(), id)
	tr.Disconnect(context.Background(), id)

	// A failing handler does not stop the rest.
	assert.Equal(t, []uuid.UUID{id}, first.connects)
	assert.Equal(t, []uuid.UUID{id}, second.connects)
	assert.Equal(t, []uuid.UUID{id}, third.connects)
	assert.Equal(t, []uuid.UUID{id}, third.disconnects)
}
