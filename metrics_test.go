package archserver

import (
	"testing"
	"time"

	"github.com/jirevwe/archserver/pool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestMetrics_PoolHooks(t *testing.T) {
	m := NewMetrics()

	p, err := pool.NewWorkerPool(2, pool.WithLogger(slogger), pool.WithHooks(m.Hooks()))
	require.NoError(t, err)

	done := make(chan struct{}, 4)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Execute(pool.TaskFunc(func() { done <- struct{}{} })))
	}
	require.NoError(t, p.Execute(pool.TaskFunc(func() {
		defer func() { done <- struct{}{} }()
		panic("boom")
	})))

	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("tasks did not run")
		}
	}

	require.NoError(t, p.Shutdown())
	require.Error(t, p.Execute(pool.TaskFunc(func() {})))

	require.Equal(t, 4.0, testutil.ToFloat64(m.TasksSubmitted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TasksPanicked))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TasksRejected))
	require.Equal(t, 0.0, testutil.ToFloat64(m.TasksQueued))
	require.Equal(t, 0.0, testutil.ToFloat64(m.BusyWorkers))

	var hist dto.Metric
	require.NoError(t, m.TaskDuration.Write(&hist))
	require.Equal(t, uint64(4), hist.GetHistogram().GetSampleCount())
}

func TestMetrics_RequestServed(t *testing.T) {
	m := NewMetrics()
	m.RequestServed(200)
	m.RequestServed(200)
	m.RequestServed(404)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("404")))
}
