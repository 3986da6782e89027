package mirror

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/xid"
)

func TestDecodeSnapshotOrdersByCreation(t *testing.T) {
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	raw := map[string]string{
		"b": `{"id":"b","name":"Stout","created_at":"` + base.Add(time.Minute).Format(time.RFC3339) + `"}`,
		"a": `{"id":"a","name":"Lager","created_at":"` + base.Format(time.RFC3339) + `"}`,
		"c": `{"name":"Cider","created_at":"` + base.Add(time.Minute).Format(time.RFC3339) + `"}`,
	}

	items, err := decodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 3 || items[0].ID != "a" || items[1].ID != "b" || items[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := decodeSnapshot(map[string]string{"x": "{not json"}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRedisMirrorNotifiesOtherWriters(t *testing.T) {
	addr := os.Getenv("TABBOOK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TABBOOK_TEST_REDIS_ADDR to run redis integration test")
	}

	key := xid.New("tabbook-test")
	writer := NewRedis(addr, "", 0, key)
	reader := NewRedis(addr, "", 0, key)
	t.Cleanup(func() {
		_ = writer.client.Del(context.Background(), key).Err()
		_ = writer.Close()
		_ = reader.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := writer.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	changes := make(chan []domain.InventoryItem, 4)
	subscribed := make(chan struct{})
	go func() {
		close(subscribed)
		_ = reader.Subscribe(ctx, func(items []domain.InventoryItem) { changes <- items })
	}()
	<-subscribed
	time.Sleep(200 * time.Millisecond)

	item := domain.InventoryItem{ID: "item-1", Name: "IPA", Price: decimal.NewFromInt(7), Stock: 3}
	if err := writer.Add(ctx, item); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case items := <-changes:
		if len(items) != 1 || items[0].Name != "IPA" {
			t.Fatalf("unexpected snapshot: %+v", items)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for change notification")
	}
}
