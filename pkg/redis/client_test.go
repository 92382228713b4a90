package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fairshop/fairpos-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromRedis(raw), srv
}

func TestGetDelConsumesValue(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.HandoffKey("receipt", "sess-1")
	if err := client.Set(ctx, key, "payload", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := client.GetDel(ctx, key)
	if err != nil {
		t.Fatalf("getdel: %v", err)
	}
	if got != "payload" {
		t.Fatalf("expected payload, got %q", got)
	}
	if _, err := client.GetDel(ctx, key); !errors.Is(err, Nil) {
		t.Fatalf("expected Nil on second read, got %v", err)
	}
}

func TestSetNXAndExpire(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)

	key := client.CommitLockKey("sess-1")
	ok, err := client.SetNX(ctx, key, "owner-a", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "owner-b", 30*time.Second)
	if err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%v err=%v", ok, err)
	}

	if err := client.Expire(ctx, key, time.Hour); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if ttl := srv.TTL(key); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", ttl)
	}

	srv.FastForward(2 * time.Hour)
	if _, err := client.Get(ctx, key); !errors.Is(err, Nil) {
		t.Fatalf("expected key to expire, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from empty client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("POST /api/v1/products", "abc"): "fp:idempotency:POST /api/v1/products:abc",
		client.AccessSessionKey("s1"):                         "fp:session:access:s1",
		client.DriveTokenKey("s1"):                            "fp:drive_token:s1",
		client.RegisterKey("s1"):                              "fp:register:s1",
		client.HandoffKey("scanned_barcode", "s1"):            "fp:handoff:scanned_barcode:s1",
		client.CommitLockKey("s1"):                            "fp:lock:commit:s1",
		client.HandoffKey("receipt", " "):                     "fp:handoff:receipt",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected key %q, got %q", want, got)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
