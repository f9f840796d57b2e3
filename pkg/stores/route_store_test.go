package stores

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

func newTestStore(t *testing.T) *RouteStore {
	t.Helper()
	store := NewRouteStore(Config{})
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func record(i int, ts time.Time) *routing.RouteRecord {
	return &routing.RouteRecord{
		ID:         fmt.Sprintf("decision-%03d", i),
		Timestamp:  ts,
		Capability: "web scraping",
		Strategy:   routing.StrategyBest,
		RoutedTo:   fmt.Sprintf("service-%d", i),
		TotalUSD:   0.005225,
	}
}

func TestRouteStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	count, err := store.CountRoutes(ctx)
	if err != nil {
		t.Fatalf("CountRoutes() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountRoutes() = %d on a fresh store, want 0", count)
	}
}

func TestRouteStoreRecordAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		if err := store.RecordRoute(ctx, record(i, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("RecordRoute() error = %v", err)
		}
	}

	count, err := store.CountRoutes(ctx)
	if err != nil {
		t.Fatalf("CountRoutes() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountRoutes() = %d, want 3", count)
	}

	recs, err := store.RecentRoutes(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRoutes() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("RecentRoutes() returned %d records, want 3", len(recs))
	}
	// Newest first.
	if recs[0].ID != "decision-002" || recs[2].ID != "decision-000" {
		t.Errorf("RecentRoutes() order: %s .. %s, want newest first", recs[0].ID, recs[2].ID)
	}
	if recs[0].Strategy != routing.StrategyBest {
		t.Errorf("Strategy = %q, want best", recs[0].Strategy)
	}
	if recs[0].Capability != "web scraping" {
		t.Errorf("Capability = %q", recs[0].Capability)
	}
}

func TestRouteStoreRecentRoutesLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		if err := store.RecordRoute(ctx, record(i, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("RecordRoute() error = %v", err)
		}
	}

	recs, err := store.RecentRoutes(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRoutes() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("RecentRoutes(2) returned %d records", len(recs))
	}

	// Zero and out-of-range limits clamp to the cap instead of failing.
	for _, limit := range []int{0, -1, HistoryLimit + 50} {
		recs, err := store.RecentRoutes(ctx, limit)
		if err != nil {
			t.Fatalf("RecentRoutes(%d) error = %v", limit, err)
		}
		if len(recs) != 5 {
			t.Errorf("RecentRoutes(%d) returned %d records, want all 5", limit, len(recs))
		}
	}
}

func TestRouteStoreDuplicateIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := record(1, time.Now().UTC())
	if err := store.RecordRoute(ctx, rec); err != nil {
		t.Fatalf("RecordRoute() error = %v", err)
	}
	if err := store.RecordRoute(ctx, rec); err == nil {
		t.Error("expected a primary key violation for a duplicate decision ID")
	}
}

func TestRouteStoreFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.db")
	store := NewRouteStore(Config{Path: path})
	ctx := context.Background()

	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := store.RecordRoute(ctx, record(1, time.Now().UTC())); err != nil {
		t.Fatalf("RecordRoute() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen: history survives a restart.
	store = NewRouteStore(Config{Path: path})
	if err := store.Init(ctx); err != nil {
		t.Fatalf("reopen Init() error = %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("reopen Migrate() error = %v", err)
	}
	count, err := store.CountRoutes(ctx)
	if err != nil {
		t.Fatalf("CountRoutes() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountRoutes() = %d after reopen, want 1", count)
	}
}
