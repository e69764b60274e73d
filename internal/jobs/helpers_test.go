package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/models"
)

const loansCSV = `lei,loan_amount,action_taken,application_date
ABC123,250000,1,2024-01-05
DEF456,180000,3,2024-02-11
GHI789,320000,1,2024-03-20
`

func openMemory(t *testing.T) *duckdb.Client {
	t.Helper()
	c, err := duckdb.Open(context.Background(), "", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// scriptedDB записывает инструкции и отвечает заготовленными числами и колонками
type scriptedDB struct {
	execs   []string
	ints    map[string]int64 // по префиксу запроса
	columns map[string][]string
	failOn  string
}

func (s *scriptedDB) Exec(_ context.Context, stmt string) error {
	s.execs = append(s.execs, stmt)
	if s.failOn != "" && strings.HasPrefix(stmt, s.failOn) {
		return errTest
	}
	return nil
}

func (s *scriptedDB) QueryInt(_ context.Context, stmt string) (int64, error) {
	for prefix, n := range s.ints {
		if strings.HasPrefix(stmt, prefix) {
			return n, nil
		}
	}
	return 0, nil
}

func (s *scriptedDB) Columns(_ context.Context, relation string) ([]string, error) {
	return s.columns[relation], nil
}

func (s *scriptedDB) Stream(context.Context, string, func(models.Row) error) error {
	return nil
}

// fakeSink собирает пачки; failOn — номер пачки (с 1), на которой вернуть ошибку
type fakeSink struct {
	mu       sync.Mutex
	columns  []string
	created  bool
	batches  [][]models.Row
	failOn   int
	attempts int
}

func (f *fakeSink) Prepare(_ context.Context, columns []string, create bool) error {
	f.columns = columns
	f.created = create
	return nil
}

func (f *fakeSink) InsertRows(_ context.Context, rows []models.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts == f.failOn {
		return errTest
	}
	f.batches = append(f.batches, append([]models.Row(nil), rows...))
	return nil
}

func (f *fakeSink) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.batches {
		for _, r := range b {
			out = append(out, *r[0])
		}
	}
	return out
}
