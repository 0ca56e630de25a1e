package health

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ping(err error) PingChecker {
	return PingChecker{Ping: func(context.Context) error { return err }}
}

func TestCheckAllAggregates(t *testing.T) {
	tests := []struct {
		name     string
		database error
		redis    error
		want     Status
	}{
		{"all healthy", nil, nil, StatusHealthy},
		{"optional down", nil, errors.New("refused"), StatusHealthy},
		{"critical down", errors.New("refused"), nil, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(time.Second, nil)
			m.Register("database", ping(tt.database), true)
			m.Register("redis", ping(tt.redis), false)

			report := m.CheckAll(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Checks, 2)
			assert.Equal(t, tt.database == nil, m.IsHealthy("database"))
		})
	}
}

func TestCheckAllRunsConcurrently(t *testing.T) {
	m := NewMonitor(time.Second, nil)
	var running, peak atomic.Int32
	slow := PingChecker{Ping: func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
		return nil
	}}
	m.Register("a", slow, true)
	m.Register("b", slow, true)

	m.CheckAll(context.Background())
	assert.Equal(t, int32(2), peak.Load())
}

func TestCheckTimeoutAndCounts(t *testing.T) {
	m := NewMonitor(10*time.Millisecond, nil)
	m.Register("db", PingChecker{Ping: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}, true)

	m.CheckAll(context.Background())
	report := m.CheckAll(context.Background())
	assert.False(t, report.Healthy())

	result, ok := m.GetResult("db")
	require.True(t, ok)
	assert.Equal(t, 2, result.CheckCount)
	assert.Equal(t, 2, result.FailureCount)
	assert.Contains(t, result.Message, "deadline")
}

func TestDisabledChecker(t *testing.T) {
	m := NewMonitor(time.Second, nil)
	m.Register("redis", PingChecker{}, false)

	report := m.CheckAll(context.Background())
	assert.True(t, report.Healthy())

	b, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"redis":{"status":"disabled"`)
	assert.Equal(t, []string{"redis"}, m.Names())
}
