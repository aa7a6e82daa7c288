package coord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, "ap"), mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	want := payload{Name: "alpha", Count: 3}
	if err := store.Set(ctx, "entry", want, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	var got payload
	found, err := store.Get(ctx, "entry", &got)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatal("expected entry to exist")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestGetAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	var got payload
	found, err := store.Get(context.Background(), "missing", &got)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found {
		t.Fatal("expected absent key")
	}
}

func TestSetWithTTLExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "ephemeral", "v", 5*time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	mr.FastForward(6 * time.Second)

	var got string
	found, err := store.Get(ctx, "ephemeral", &got)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found {
		t.Fatal("expected entry to expire")
	}
}

func TestGetCorrupt(t *testing.T) {
	store, mr := newTestStore(t)

	if err := mr.Set("ap:broken", "{not-json"); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	var got payload
	_, err := store.Get(context.Background(), "broken", &got)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Get error = %v, want ErrCorrupt", err)
	}
}

func TestDeleteAndExists(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "entry", 1, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	exists, err := store.Exists(ctx, "entry")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if !exists {
		t.Fatal("expected entry to exist")
	}

	if err := store.Delete(ctx, "entry"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	exists, err = store.Exists(ctx, "entry")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if exists {
		t.Fatal("expected entry to be deleted")
	}

	// Deleting an absent key is a no-op.
	if err := store.Delete(ctx, "entry"); err != nil {
		t.Fatalf("Delete(absent) error: %v", err)
	}
}

func TestIncrementArmsTTLOnCreation(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	value, err := store.Increment(ctx, "counter", 5, 10*time.Second)
	if err != nil {
		t.Fatalf("Increment error: %v", err)
	}
	if value != 5 {
		t.Fatalf("value = %d, want 5", value)
	}
	if mr.TTL("ap:counter") <= 0 {
		t.Fatal("expected TTL to be armed on creation")
	}

	mr.FastForward(4 * time.Second)

	value, err = store.Increment(ctx, "counter", 3, 10*time.Second)
	if err != nil {
		t.Fatalf("Increment error: %v", err)
	}
	if value != 8 {
		t.Fatalf("value = %d, want 8", value)
	}

	// The second increment must not reset the countdown.
	if ttl := mr.TTL("ap:counter"); ttl > 6*time.Second {
		t.Fatalf("TTL = %v, want <= 6s (not re-armed)", ttl)
	}

	mr.FastForward(7 * time.Second)
	exists, err := store.Exists(ctx, "counter")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if exists {
		t.Fatal("expected counter to expire on the original countdown")
	}
}

func TestIncrementWithoutTTLPersists(t *testing.T) {
	store, mr := newTestStore(t)

	if _, err := store.Increment(context.Background(), "counter", 2, 0); err != nil {
		t.Fatalf("Increment error: %v", err)
	}
	if mr.TTL("ap:counter") != 0 {
		t.Fatal("expected no TTL on the counter")
	}
}

func TestIncrementCoincidentalValueDoesNotArm(t *testing.T) {
	// A counter decremented back to zero still exists; a later increment
	// landing exactly on the increment amount must not arm a TTL. This is
	// where the value-equality heuristic would misfire.
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Increment(ctx, "counter", 5, 0); err != nil {
		t.Fatalf("Increment error: %v", err)
	}
	if _, err := store.Decrement(ctx, "counter", 5); err != nil {
		t.Fatalf("Decrement error: %v", err)
	}

	value, err := store.Increment(ctx, "counter", 5, 10*time.Second)
	if err != nil {
		t.Fatalf("Increment error: %v", err)
	}
	if value != 5 {
		t.Fatalf("value = %d, want 5", value)
	}
	if mr.TTL("ap:counter") != 0 {
		t.Fatal("TTL armed on a pre-existing counter")
	}
}

func TestCompareAndDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "entry", payload{Name: "alpha", Count: 3}, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	raw, found, err := store.GetRaw(ctx, "entry")
	if err != nil {
		t.Fatalf("GetRaw error: %v", err)
	}
	if !found {
		t.Fatal("expected entry to exist")
	}

	deleted, err := store.CompareAndDelete(ctx, "entry", []byte(`{"name":"other","count":9}`))
	if err != nil {
		t.Fatalf("CompareAndDelete error: %v", err)
	}
	if deleted {
		t.Fatal("expected mismatched payload to leave the entry alone")
	}
	if !mr.Exists("ap:entry") {
		t.Fatal("expected the entry to survive a mismatched claim")
	}

	deleted, err = store.CompareAndDelete(ctx, "entry", raw)
	if err != nil {
		t.Fatalf("CompareAndDelete error: %v", err)
	}
	if !deleted {
		t.Fatal("expected the exact bytes just read to claim the entry")
	}
	if mr.Exists("ap:entry") {
		t.Fatal("expected the claimed entry to be gone")
	}

	// A second claim finds nothing to delete.
	deleted, err = store.CompareAndDelete(ctx, "entry", raw)
	if err != nil {
		t.Fatalf("CompareAndDelete error: %v", err)
	}
	if deleted {
		t.Fatal("expected a claim on an absent entry to lose")
	}
}

func TestGetRawAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	raw, found, err := store.GetRaw(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetRaw error: %v", err)
	}
	if found || raw != nil {
		t.Fatalf("GetRaw(absent) = (%q, %v), want (nil, false)", raw, found)
	}
}

func TestDecrement(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Increment(ctx, "counter", 10, 0); err != nil {
		t.Fatalf("Increment error: %v", err)
	}

	value, err := store.Decrement(ctx, "counter", 4)
	if err != nil {
		t.Fatalf("Decrement error: %v", err)
	}
	if value != 6 {
		t.Fatalf("value = %d, want 6", value)
	}
}

func TestSetIfAbsent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	won, err := store.SetIfAbsent(ctx, "slot", "first", 10*time.Second)
	if err != nil {
		t.Fatalf("SetIfAbsent error: %v", err)
	}
	if !won {
		t.Fatal("expected first write to win")
	}
	if mr.TTL("ap:slot") <= 0 {
		t.Fatal("expected TTL to be armed with the winning write")
	}

	won, err = store.SetIfAbsent(ctx, "slot", "second", 10*time.Second)
	if err != nil {
		t.Fatalf("SetIfAbsent error: %v", err)
	}
	if won {
		t.Fatal("expected second write to lose")
	}

	var got string
	if _, err := store.Get(ctx, "slot", &got); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != "first" {
		t.Fatalf("value = %q, want the winning write to stand", got)
	}
}

func TestStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	if err := store.Set(ctx, "k", 1, 0); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Set error = %v, want ErrStoreUnavailable", err)
	}
	var out int
	if _, err := store.Get(ctx, "k", &out); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Get error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := store.Increment(ctx, "k", 1, 0); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Increment error = %v, want ErrStoreUnavailable", err)
	}
	if _, _, err := store.AcquireLock(ctx, "k", time.Second); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("AcquireLock error = %v, want ErrStoreUnavailable", err)
	}
}
