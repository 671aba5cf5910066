package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kjstillabower/weather-relay/internal/models"
)

type mockFetcher struct {
	mu   sync.Mutex
	seen []models.Key
	err  error
}

func (m *mockFetcher) Lookup(ctx context.Context, location, date string) (models.Result, error) {
	m.mu.Lock()
	m.seen = append(m.seen, models.Key{Location: location, Date: date})
	m.mu.Unlock()
	if m.err != nil {
		return models.Result{}, m.err
	}
	return models.Result{Payload: json.RawMessage(`{"address":"` + location + `"}`)}, nil
}

func TestCacheWarmer_Warm_Success(t *testing.T) {
	fetcher := &mockFetcher{}
	warmer := NewCacheWarmer(fetcher, nil, nil)

	keys := []models.Key{{Location: "Boston", Date: "2024-01-01"}, {Location: "Paris", Date: "2024-01-02"}}
	if err := warmer.Warm(context.Background(), keys); err != nil {
		t.Fatalf("Warm() error = %v, want nil", err)
	}
	if len(fetcher.seen) != 2 {
		t.Errorf("fetcher called %d times, want 2", len(fetcher.seen))
	}
}

func TestCacheWarmer_Warm_EmptyLookups(t *testing.T) {
	warmer := NewCacheWarmer(&mockFetcher{}, nil, nil)
	if err := warmer.Warm(context.Background(), nil); err != nil {
		t.Fatalf("Warm() with nil lookups error = %v, want nil", err)
	}
}

func TestCacheWarmer_Warm_FetcherError(t *testing.T) {
	warmer := NewCacheWarmer(&mockFetcher{err: errors.New("connection refused")}, nil, nil)

	err := warmer.Warm(context.Background(), []models.Key{{Location: "Boston", Date: "2024-01-01"}})
	if err == nil {
		t.Fatal("Warm() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "Boston/2024-01-01") {
		t.Errorf("Warm() error = %q, want failing lookup named", err)
	}
}

func TestCacheWarmer_Warm_SkipsDuplicatesAndCachedKeys(t *testing.T) {
	ctx := context.Background()
	store := NewLRUCache(10)
	cached := models.Key{Location: "Paris", Date: "2024-01-02"}
	_ = store.Set(ctx, cached, payload(5))

	fetcher := &mockFetcher{}
	warmer := NewCacheWarmer(fetcher, store, nil)
	boston := models.Key{Location: "Boston", Date: "2024-01-01"}
	keys := []models.Key{boston, cached, boston, {Location: "boston", Date: "2024-01-01"}}
	if err := warmer.Warm(ctx, keys); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	want := map[models.Key]bool{boston: true, {Location: "boston", Date: "2024-01-01"}: true}
	if len(fetcher.seen) != len(want) {
		t.Fatalf("fetcher saw %v, want exactly %d lookups", fetcher.seen, len(want))
	}
	for _, k := range fetcher.seen {
		if !want[k] {
			t.Errorf("unexpected lookup %v", k)
		}
	}
}

func TestCacheWarmer_Warm_JoinsAllFailures(t *testing.T) {
	sentinel := errors.New("connection refused")
	warmer := NewCacheWarmer(&mockFetcher{err: sentinel}, nil, nil)

	keys := []models.Key{{Location: "Boston", Date: "2024-01-01"}, {Location: "Paris", Date: "2024-01-02"}}
	err := warmer.Warm(context.Background(), keys)
	if !errors.Is(err, sentinel) {
		t.Fatalf("Warm() error = %v, want wrapping %v", err, sentinel)
	}
	for _, k := range keys {
		if !strings.Contains(err.Error(), k.String()) {
			t.Errorf("Warm() error = %q, missing %s", err, k)
		}
	}
}
