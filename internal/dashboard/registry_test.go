package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankdash/bankdash/internal/gateway"
)

func TestRegistryReusesControllerPerSession(t *testing.T) {
	gw := newFakeGateway(seedBank("Alpha"))
	created := 0
	reg := NewRegistry(func() *Controller {
		created++
		ctrl, _ := newTestController(gw)
		return ctrl
	}, time.Hour, nil)

	first := reg.Get(context.Background(), "session-a")
	again := reg.Get(context.Background(), "session-a")
	other := reg.Get(context.Background(), "session-b")

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, gw.count("list"), "one startup refresh per controller")
	require.Len(t, first.Snapshot().Entities, 1)
}

func TestRegistryRetriesStartupRefreshUntilLoaded(t *testing.T) {
	gw := newFakeGateway(seedBank("Alpha"))
	gw.listErr = &gateway.TransportError{Op: gateway.OpListAll, Err: errors.New("connection refused")}
	reg := NewRegistry(func() *Controller {
		ctrl, _ := newTestController(gw)
		return ctrl
	}, time.Hour, nil)

	ctrl := reg.Get(context.Background(), "s")
	assert.Empty(t, ctrl.Snapshot().Entities)

	gw.mu.Lock()
	gw.listErr = nil
	gw.mu.Unlock()
	for range 3 {
		assert.Same(t, ctrl, reg.Get(context.Background(), "s"))
	}
	assert.Equal(t, []string{"Alpha"}, bankNames(ctrl.Snapshot().Entities))
	assert.Equal(t, 2, gw.count("list"), "refetched once, then served from the cache")
}

func TestRegistryEmptyListCountsAsLoaded(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry(func() *Controller {
		ctrl, _ := newTestController(gw)
		return ctrl
	}, time.Hour, nil)

	reg.Get(context.Background(), "s")
	reg.Get(context.Background(), "s")
	assert.Equal(t, 1, gw.count("list"))
}

func TestRegistrySweepEvictsIdleControllers(t *testing.T) {
	gw := newFakeGateway(seedBank("Alpha"))
	reg := NewRegistry(func() *Controller {
		ctrl, _ := newTestController(gw)
		return ctrl
	}, 10*time.Minute, nil)

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	reg.Get(context.Background(), "idle")

	now = now.Add(8 * time.Minute)
	reg.Get(context.Background(), "active")
	assert.Zero(t, reg.Sweep())

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	reg.Get(context.Background(), "idle")
	assert.Equal(t, 3, gw.count("list"), "an evicted session starts over")
}

func TestRegistryWithoutTTLNeverEvicts(t *testing.T) {
	reg := NewRegistry(func() *Controller {
		ctrl, _ := newTestController(newFakeGateway())
		return ctrl
	}, 0, nil)
	reg.Get(context.Background(), "s")
	assert.Zero(t, reg.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reg.Run(ctx)
}
