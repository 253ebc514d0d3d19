package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"papertrade/internal/application/port"
	"papertrade/internal/domain"

	"github.com/redis/go-redis/v9"
)

type Repo struct {
	rdb             *redis.Client
	prefix          string
	ttl             time.Duration
	keyLatest       string // prefix + ":latest"
	squareOffStream string
	squareOffChan   string
}

type LatestPrice struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Ts         int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, squareOffStream, squareOffChan string) *Repo {
	if strings.TrimSpace(squareOffStream) == "" {
		squareOffStream = prefix + ":squareoffs"
	}
	if strings.TrimSpace(squareOffChan) == "" {
		squareOffChan = prefix + ":squareoffs:pub"
	}
	return &Repo{
		rdb:             rdb,
		prefix:          prefix,
		ttl:             ttl,
		keyLatest:       prefix + ":latest",
		squareOffStream: squareOffStream,
		squareOffChan:   squareOffChan,
	}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, i domain.Instrument, price float64, ts int64) error {
	if price <= 0 {
		return nil
	}
	lp := LatestPrice{Instrument: string(i), Price: price, Ts: ts}
	b, _ := json.Marshal(lp)

	// Hash: field = "BTC" -> json
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, string(i), string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	// snapshots live in the local database only
	return nil
}

func (r *Repo) InsertSquareOff(ctx context.Context, ts int64, i domain.Instrument, orderID int64, reason string, price, profit float64) error {
	// 1) Stream: XADD <stream> * ts instrument order_id reason price profit
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.squareOffStream,
		Values: map[string]any{
			"ts_ms":      ts,
			"instrument": string(i),
			"order_id":   orderID,
			"reason":     reason,
			"price":      price,
			"profit":     profit,
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json, for the notification workers
	msg := fmt.Sprintf(`{"ts_ms":%d,"instrument":"%s","order_id":%d,"reason":%q,"price":%.8f,"profit":%.8f}`,
		ts, string(i), orderID, reason, price, profit)
	return r.rdb.Publish(ctx, r.squareOffChan, msg).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)
