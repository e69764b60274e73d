package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"HMDARiskPump/internal/models"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]models.Row
	failAt  int // номер вызова (с 1), на котором вернуть ошибку
	calls   int
}

func (s *recordingSink) InsertRows(_ context.Context, rows []models.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == s.failAt {
		return errors.New("clickhouse unavailable")
	}
	s.batches = append(s.batches, append([]models.Row(nil), rows...))
	return nil
}

func (s *recordingSink) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, b := range s.batches {
		out = append(out, len(b))
	}
	return out
}

func row(v string) models.Row {
	return models.Row{&v}
}

func feed(n int) <-chan models.Row {
	ch := make(chan models.Row, n)
	for i := 0; i < n; i++ {
		ch <- row("x")
	}
	close(ch)
	return ch
}

func TestRunFlushesBySizeAndOnDrain(t *testing.T) {
	sink := &recordingSink{}
	b := NewBatcher(3, 60, zap.NewNop(), sink)

	var flushed []int
	b.OnFlush(func(n int) error {
		flushed = append(flushed, n)
		return nil
	})

	sent, err := b.Run(context.Background(), feed(7))
	require.NoError(t, err)
	assert.EqualValues(t, 7, sent)
	assert.Equal(t, []int{3, 3, 1}, sink.sizes())
	assert.Equal(t, []int{3, 3, 1}, flushed)
}

func TestRunStopsOnSinkError(t *testing.T) {
	sink := &recordingSink{failAt: 2}
	b := NewBatcher(2, 60, zap.NewNop(), sink)

	var flushed int
	b.OnFlush(func(n int) error {
		flushed += n
		return nil
	})

	sent, err := b.Run(context.Background(), feed(6))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse unavailable")
	assert.EqualValues(t, 2, sent)
	assert.Equal(t, 2, flushed)
}

func TestRunOnFlushErrorStops(t *testing.T) {
	b := NewBatcher(1, 60, zap.NewNop(), &recordingSink{})
	b.OnFlush(func(int) error { return errors.New("disk full") })

	_, err := b.Run(context.Background(), feed(3))
	assert.ErrorContains(t, err, "disk full")
}

func TestRunFlushesByInterval(t *testing.T) {
	sink := &recordingSink{}
	b := NewBatcher(100, 1, zap.NewNop(), sink)
	b.batchInterval = 20 * time.Millisecond

	in := make(chan models.Row)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Run(context.Background(), in)
	}()

	in <- row("a")
	assert.Eventually(t, func() bool { return len(sink.sizes()) == 1 }, time.Second, 10*time.Millisecond)
	close(in)
	<-done
}

func TestRunGracefulShutdown(t *testing.T) {
	sink := &recordingSink{}
	b := NewBatcher(100, 60, zap.NewNop(), sink)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan models.Row, 2)
	in <- row("a")
	in <- row("b")

	done := make(chan error, 1)
	go func() {
		_, err := b.Run(ctx, in)
		done <- err
	}()

	assert.Eventually(t, func() bool { return len(in) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []int{2}, sink.sizes())
}
