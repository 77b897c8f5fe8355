package metrics

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/logger"
)

func TestObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	s := pricing.NewState(pricing.DefaultDynamics(), 2500)
	m.ObserveStep(1.5, s)
	m.ObserveStep(-0.5, s)
	m.SetEpisodeReturn(1.0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps))
	assert.Equal(t, 2500.0, testutil.ToFloat64(m.price))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.demand))
	assert.Equal(t, 2500.0*1000.0, testutil.ToFloat64(m.revenue))
	assert.Equal(t, 1, testutil.CollectAndCount(m.reward))

	expected := `
# HELP pricelearn_episode_return Return accumulated so far in the current episode
# TYPE pricelearn_episode_return gauge
pricelearn_episode_return 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.episodeReturn,
		strings.NewReader(expected)))
}

func TestAlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m1, err := New(reg)
	require.NoError(t, err)
	m2, err := New(reg)
	require.NoError(t, err)

	m1.ObserveStep(1, pricing.State{})
	m2.ObserveStep(1, pricing.State{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m1.steps))
	assert.Same(t, m1.steps, m2.steps)
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObserveStep(1, pricing.State{Price: 10})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, reg, logger.NopLogger{}) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
