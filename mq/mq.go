// Package mq fans recipe change events out to background handlers, over
// Redis pub/sub when available and in-process otherwise.
package mq

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channel = "recipe-events"

const (
	RecipeCreated  = "recipe-created"
	RecipeUpdated  = "recipe-updated"
	RecipeDeleted  = "recipe-deleted"
	RecipeReviewed = "recipe-reviewed"
)

type RecipeEvent struct {
	Type      string `json:"type"`
	RecipeID  string `json:"recipeId"`
	Title     string `json:"title,omitempty"`
	PrevTitle string `json:"prevTitle,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

type Handler func(ctx context.Context, ev RecipeEvent)

type Bus struct {
	conn     *redis.Client
	log      *zap.Logger
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus publishes through conn; with a nil conn events are dispatched
// synchronously to the local handlers.
func NewBus(conn *redis.Client, log *zap.Logger) *Bus {
	return &Bus{conn: conn, log: log}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Emit never fails the caller: publish errors are logged and the event is
// handled locally instead.
func (b *Bus) Emit(ctx context.Context, ev RecipeEvent) {
	if b == nil {
		return
	}
	if b.conn == nil {
		b.dispatch(ctx, ev)
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.log.Error("marshal recipe event", zap.Error(err))
		return
	}
	if err := b.conn.Publish(ctx, channel, data).Err(); err != nil {
		b.log.Warn("publish recipe event failed, handling locally", zap.String("type", ev.Type), zap.Error(err))
		b.dispatch(ctx, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, ev RecipeEvent) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}

// Run consumes published events until ctx is done. It returns immediately
// when the bus has no Redis connection.
func (b *Bus) Run(ctx context.Context) {
	if b.conn == nil {
		return
	}
	sub := b.conn.Subscribe(ctx, channel)
	defer sub.Close()

	b.log.Info("listening for recipe events", zap.String("channel", channel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev RecipeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("bad recipe event", zap.Error(err))
				continue
			}
			b.dispatch(ctx, ev)
		}
	}
}
