package dedupe

import (
	"context"
	"os"
	"testing"
)

func TestFingerprint_Normalizes(t *testing.T) {
	a := Fingerprint("AI is transforming industries worldwide.")
	b := Fingerprint("  ai IS transforming\n industries   worldwide. ")
	if a != b {
		t.Errorf("fingerprints differ: %s vs %s", a, b)
	}
	if a == Fingerprint("Something else entirely.") {
		t.Error("different texts share a fingerprint")
	}
}

func TestMemory_SeenAfterMark(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := Fingerprint("hello world")

	if seen, _ := m.Seen(ctx, key); seen {
		t.Fatal("fresh index reports seen")
	}
	if err := m.Mark(ctx, key); err != nil {
		t.Fatal(err)
	}
	if seen, _ := m.Seen(ctx, key); !seen {
		t.Error("marked key not seen")
	}
}

func TestRedis_SeenAfterMark(t *testing.T) {
	addr := os.Getenv("NEWSRAG_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NEWSRAG_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, RedisConfig{Addr: addr, Key: "newsrag:test:fingerprints"})
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	defer r.Close()
	defer r.rdb.Del(ctx, r.key)

	key := Fingerprint("redis backed fingerprint")
	if seen, err := r.Seen(ctx, key); err != nil || seen {
		t.Fatalf("Seen = %v, %v", seen, err)
	}
	if err := r.Mark(ctx, key); err != nil {
		t.Fatal(err)
	}
	if seen, _ := r.Seen(ctx, key); !seen {
		t.Error("marked key not seen")
	}
}
