package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/qiuyin/AgentDesk/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "market.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestWindowRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := t.Context()

	in := []models.Candle{
		{Time: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Time: 2000, Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}
	if err := store.SaveWindow(ctx, "ETHUSDT", "1h", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.LoadWindow(ctx, "ETHUSDT", "1h")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d candles, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("candle %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestWindowReplacedOnSave(t *testing.T) {
	store := testStore(t)
	ctx := t.Context()

	first := []models.Candle{{Time: 1000, Close: 1}}
	second := []models.Candle{{Time: 2000, Close: 2}, {Time: 3000, Close: 3}}
	if err := store.SaveWindow(ctx, "ETHUSDT", "1h", first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveWindow(ctx, "ETHUSDT", "1h", second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	out, err := store.LoadWindow(ctx, "ETHUSDT", "1h")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0].Time != 2000 {
		t.Fatalf("expected replacement window, got %+v", out)
	}
}

func TestWindowsKeyedBySymbolAndInterval(t *testing.T) {
	store := testStore(t)
	ctx := t.Context()

	if err := store.SaveWindow(ctx, "ETHUSDT", "1h", []models.Candle{{Time: 1, Close: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveWindow(ctx, "ETHUSDT", "4h", []models.Candle{{Time: 2, Close: 2}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.LoadWindow(ctx, "ETHUSDT", "4h")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].Time != 2 {
		t.Fatalf("interval key leaked: %+v", out)
	}

	missing, err := store.LoadWindow(ctx, "SOLUSDT", "1h")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown symbol, got %+v", missing)
	}
}

func TestSaveWindowIgnoresEmpty(t *testing.T) {
	store := testStore(t)
	ctx := t.Context()

	if err := store.SaveWindow(ctx, "ETHUSDT", "1h", nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	out, err := store.LoadWindow(ctx, "ETHUSDT", "1h")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out != nil {
		t.Fatalf("empty save should not create a row, got %+v", out)
	}
}
