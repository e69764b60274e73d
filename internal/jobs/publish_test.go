package jobs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"HMDARiskPump/internal/config"
	"HMDARiskPump/internal/duckdb"
	"HMDARiskPump/internal/storage"
)

type publishTestSuite struct {
	suite.Suite
	db    *duckdb.Client
	store *storage.FileStore
	cfg   config.PublishConfig
}

func TestPublishTestSuite(t *testing.T) {
	suite.Run(t, new(publishTestSuite))
}

func (s *publishTestSuite) SetupTest() {
	ctx := context.Background()
	db, err := duckdb.Open(ctx, "", zap.NewNop())
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(db.Exec(ctx, "CREATE SCHEMA hmda"))
	s.Require().NoError(db.Exec(ctx, `CREATE TABLE hmda.loans AS
		SELECT i AS id, CASE WHEN i % 2 = 0 THEN NULL ELSE 'note ' || i END AS note
		FROM range(5) t(i)`))

	path := filepath.Join(s.T().TempDir(), "state", "checkpoint.json")
	s.store = storage.NewFileStore(path)
	s.cfg = config.PublishConfig{
		Schema:         "hmda",
		Table:          "loans",
		BatchSize:      2,
		BatchInterval:  60,
		CheckpointPath: path,
	}
}

func (s *publishTestSuite) TearDownTest() {
	_ = s.db.Close()
}

func (s *publishTestSuite) checkpoint() int64 {
	data, err := s.store.Load()
	s.Require().NoError(err)
	return data["hmda.loans"]
}

func (s *publishTestSuite) TestPublishAll() {
	sink := &fakeSink{}
	sum, err := Publish(context.Background(), s.db, s.cfg, true, sink, s.store, zap.NewNop())
	s.Require().NoError(err)

	s.Equal([]string{"id", "note"}, sink.columns)
	s.True(sink.created)
	s.Equal([]string{"0", "1", "2", "3", "4"}, sink.ids())
	s.Len(sink.batches, 3)
	s.Nil(sink.batches[0][0][1])
	s.Equal("note 1", *sink.batches[0][1][1])

	s.EqualValues(0, sum.StartedAt)
	s.EqualValues(5, sum.Published)
	s.Equal(3, sum.Batches)
	s.EqualValues(5, s.checkpoint())
}

func (s *publishTestSuite) TestResumeFromCheckpoint() {
	s.Require().NoError(s.store.Save(map[string]int64{"hmda.loans": 3, "hmda.other": 7}))

	sink := &fakeSink{}
	sum, err := Publish(context.Background(), s.db, s.cfg, false, sink, s.store, zap.NewNop())
	s.Require().NoError(err)
	s.False(sink.created)
	s.Equal([]string{"3", "4"}, sink.ids())
	s.EqualValues(3, sum.StartedAt)
	s.EqualValues(2, sum.Published)

	data, err := s.store.Load()
	s.Require().NoError(err)
	s.Equal(map[string]int64{"hmda.loans": 5, "hmda.other": 7}, data)
}

func (s *publishTestSuite) TestFailedBatchKeepsCheckpoint() {
	sink := &fakeSink{failOn: 2}
	sum, err := Publish(context.Background(), s.db, s.cfg, true, sink, s.store, zap.NewNop())
	s.Require().ErrorIs(err, errTest)
	s.EqualValues(2, sum.Published)
	s.EqualValues(2, s.checkpoint())

	// повторный запуск продолжает с неотправленной пачки
	retry := &fakeSink{}
	_, err = Publish(context.Background(), s.db, s.cfg, true, retry, s.store, zap.NewNop())
	s.Require().NoError(err)
	s.Equal([]string{"2", "3", "4"}, retry.ids())
	s.EqualValues(5, s.checkpoint())
}

func (s *publishTestSuite) TestNothingLeft() {
	s.Require().NoError(s.store.Save(map[string]int64{"hmda.loans": 5}))
	sink := &fakeSink{}
	sum, err := Publish(context.Background(), s.db, s.cfg, true, sink, s.store, zap.NewNop())
	s.Require().NoError(err)
	s.Zero(sum.Published)
	s.Empty(sink.batches)
}

func (s *publishTestSuite) TestMissingTable() {
	cfg := s.cfg
	cfg.Table = "missing"
	_, err := Publish(context.Background(), s.db, cfg, true, &fakeSink{}, s.store, zap.NewNop())
	s.Error(err)
}

func TestPublishValidatesConfig(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "cp.json"))
	_, err := Publish(context.Background(), &scriptedDB{}, config.PublishConfig{Schema: "hmda", Table: "t"}, true, &fakeSink{}, store, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BatchSize")
}
