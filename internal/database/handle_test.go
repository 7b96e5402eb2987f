package database

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stmadison/internal/metrics"
)

func TestHandle_MutualExclusion(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewHandle(db, nil)

	const workers = 32
	var active, maxActive int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			g, err := h.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer g.Release()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
}

func TestHandle_AcquireHonoursContext(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewHandle(db, nil)

	g, err := h.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	g.Release()
	g.Release()

	g2, err := h.Acquire(context.Background())
	require.NoError(t, err)
	g2.Release()
}

func TestHandle_Ping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := prometheus.NewRegistry()
	h := NewHandle(db, metrics.New(reg))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	require.NoError(t, h.Ping(context.Background()))

	mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)
	assert.ErrorIs(t, h.Ping(context.Background()), assert.AnError)

	assert.NoError(t, mock.ExpectationsWereMet())
	n, err := testutil.GatherAndCount(reg, "stmadison_db_connection_wait_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
