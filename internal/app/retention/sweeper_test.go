package retention

import (
	"context"
	"testing"
	"time"

	memstore "github.com/pixelharbor/concierge/internal/adapters/storage/memory"
	"github.com/pixelharbor/concierge/internal/app/menu"
	"github.com/pixelharbor/concierge/internal/domain"
)

const testWindow = 30 * 24 * time.Hour

func newTestSweeper(exchanges domain.ExchangeStore, relayStore domain.RelayStore) *Sweeper {
	return NewSweeper(
		exchanges,
		relayStore,
		menu.NewNavigator(menu.DefaultCatalog(), 5*time.Minute),
		testWindow,
		time.Hour,
	)
}

func TestSweepOnceDropsOldExchanges(t *testing.T) {
	ctx := context.Background()
	exchanges := memstore.NewExchangeStore()

	now := time.Now()
	_ = exchanges.AppendExchange(ctx, &domain.Exchange{
		ID: "old", AvatarKey: "visitor", SessionID: "s1",
		MessageText: "ancient history", Reply: "indeed",
		Timestamp: now.Add(-testWindow - time.Hour),
	})
	_ = exchanges.AppendExchange(ctx, &domain.Exchange{
		ID: "fresh", AvatarKey: "visitor", SessionID: "s1",
		MessageText: "recent", Reply: "quite",
		Timestamp: now.Add(-time.Hour),
	})

	sweeper := newTestSweeper(exchanges, memstore.NewRelayStore())
	sweeper.now = func() time.Time { return now }

	sweeper.SweepOnce(ctx)

	history, err := exchanges.ListExchanges(ctx, "visitor", "s1", 0)
	if err != nil {
		t.Fatalf("ListExchanges failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != "fresh" {
		t.Fatalf("expected only the fresh exchange to survive, got %+v", history)
	}
}

func TestSweepOnceDropsOnlyDeliveredRelayMessages(t *testing.T) {
	ctx := context.Background()
	relayStore := memstore.NewRelayStore()

	now := time.Now()
	_ = relayStore.QueueMessage(ctx, &domain.RelayMessage{
		ID: "m1", ToKey: "visitor", Content: "old note",
		CreatedAt: now.Add(-testWindow - 2*time.Hour),
	})
	_ = relayStore.MarkDelivered(ctx, "m1")
	_ = relayStore.QueueMessage(ctx, &domain.RelayMessage{
		ID: "m2", ToKey: "visitor", Content: "still waiting",
		CreatedAt: now.Add(-testWindow - 2*time.Hour),
	})

	sweeper := newTestSweeper(memstore.NewExchangeStore(), relayStore)
	// MarkDelivered stamps the delivery with the wall clock, so sweep from a
	// point past the window relative to that stamp.
	sweeper.now = func() time.Time { return now.Add(testWindow + time.Minute) }

	sweeper.SweepOnce(ctx)

	// m2 was never delivered and is not the sweeper's to delete.
	pending, err := relayStore.PendingMessages(ctx, "visitor")
	if err != nil {
		t.Fatalf("PendingMessages failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "m2" {
		t.Fatalf("expected the undelivered message to survive, got %+v", pending)
	}

	// m1 is gone for good: delivering it again fails.
	if err := relayStore.MarkDelivered(ctx, "m1"); err == nil {
		t.Fatalf("expected m1 to be deleted")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	sweeper := newTestSweeper(memstore.NewExchangeStore(), memstore.NewRelayStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}
