package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/xid"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opSync   = "sync"
)

type event struct {
	Origin string `json:"origin"`
	Op     string `json:"op"`
	ItemID string `json:"item_id,omitempty"`
}

// Redis stores the inventory as a hash of item id to JSON document and
// announces every write on a pub/sub channel.
type Redis struct {
	client  *redis.Client
	key     string
	channel string
	origin  string
}

var _ Mirror = (*Redis)(nil)

func NewRedis(addr string, password string, db int, key string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Redis{
		client:  client,
		key:     key,
		channel: key + ":events",
		origin:  xid.New("node"),
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Add(ctx context.Context, item domain.InventoryItem) error {
	return r.put(ctx, opAdd, item)
}

func (r *Redis) Update(ctx context.Context, item domain.InventoryItem) error {
	return r.put(ctx, opUpdate, item)
}

func (r *Redis) Remove(ctx context.Context, item domain.InventoryItem) error {
	if err := r.client.HDel(ctx, r.key, item.ID).Err(); err != nil {
		return err
	}
	return r.publish(ctx, opRemove, item.ID)
}

func (r *Redis) put(ctx context.Context, op string, item domain.InventoryItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key, item.ID, payload).Err(); err != nil {
		return err
	}
	return r.publish(ctx, op, item.ID)
}

func (r *Redis) publish(ctx context.Context, op string, itemID string) error {
	payload, err := json.Marshal(event{Origin: r.origin, Op: op, ItemID: itemID})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *Redis) Snapshot(ctx context.Context) ([]domain.InventoryItem, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

func (r *Redis) Sync(ctx context.Context, items []domain.InventoryItem) error {
	fields := make(map[string]any, len(items))
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		fields[item.ID] = payload
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.key, fields)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.publish(ctx, opSync, "")
}

func (r *Redis) Subscribe(ctx context.Context, onChange func([]domain.InventoryItem)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var evt event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				slog.Warn("mirror: ignoring malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			if evt.Origin == r.origin {
				continue
			}
			items, err := r.Snapshot(ctx)
			if err != nil {
				slog.Warn("mirror: snapshot after remote change failed", "op", evt.Op, "error", err)
				continue
			}
			onChange(items)
		}
	}
}

func decodeSnapshot(raw map[string]string) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0, len(raw))
	for id, payload := range raw {
		var item domain.InventoryItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode mirrored item %s: %w", id, err)
		}
		if item.ID == "" {
			item.ID = id
		}
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}
