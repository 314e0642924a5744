package mq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLocalDispatch(t *testing.T) {
	bus := NewBus(nil, zap.NewNop())
	var got []RecipeEvent
	bus.Subscribe(func(_ context.Context, ev RecipeEvent) { got = append(got, ev) })
	bus.Subscribe(func(_ context.Context, ev RecipeEvent) { got = append(got, ev) })

	bus.Emit(context.Background(), RecipeEvent{Type: RecipeCreated, RecipeID: "abc"})

	assert.Len(t, got, 2)
	assert.Equal(t, "abc", got[0].RecipeID)
}

func TestNilBusAndRunWithoutRedis(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Emit(context.Background(), RecipeEvent{Type: RecipeDeleted}) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewBus(nil, zap.NewNop()).Run(ctx)
}
