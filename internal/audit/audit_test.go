package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPublisherStampsEvents(t *testing.T) {
	pub := NewChannelPublisher(4, discardLogger())

	require.NoError(t, pub.Emit(context.Background(), Event{Kind: KindProofAdded, ProofID: 1}))

	event := <-pub.Events()
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, KindProofAdded, event.Kind)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	pub := NewChannelPublisher(1, discardLogger())
	ctx := context.Background()

	require.NoError(t, pub.Emit(ctx, Event{Kind: KindProofAdded, ProofID: 1}))
	// Buffer full: the emit still succeeds, the event is dropped.
	require.NoError(t, pub.Emit(ctx, Event{Kind: KindProofAdded, ProofID: 2}))

	event := <-pub.Events()
	assert.Equal(t, "1", event.ProofID.String(), "first event must survive")
	select {
	case extra := <-pub.Events():
		t.Fatalf("unexpected second event: %+v", extra)
	default:
	}
}

func TestWorkerFansOutAndSurvivesSinkErrors(t *testing.T) {
	pub := NewChannelPublisher(4, discardLogger())
	store := NewMemoryStore()
	failing := failingSink{}
	worker := NewWorker(pub.Events(), discardLogger(), failing, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, Event{Kind: KindProofConfirmed, ProofID: 7, Confirmer: "alice"}))

	require.Eventually(t, func() bool {
		events, err := store.ListByProof(context.Background(), 7)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemoryStoreListsByProof(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Append(ctx, Event{ID: "a", Kind: KindProofAdded, ProofID: 1}))
	require.NoError(t, store.Append(ctx, Event{ID: "b", Kind: KindOwnershipTransferred, ProofID: 1}))
	require.NoError(t, store.Append(ctx, Event{ID: "c", Kind: KindProofAdded, ProofID: 2}))

	events, err := store.ListByProof(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "b", events[1].ID)
}

type failingSink struct{}

func (failingSink) Append(context.Context, Event) error {
	return assert.AnError
}
