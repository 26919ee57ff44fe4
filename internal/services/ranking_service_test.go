package services

import (
	"context"
	"errors"
	"standbot/internal/models"
	"standbot/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTotals serves fixed aggregates and fails when err is set.
type stubTotals struct {
	rows []models.Aggregate
	err  error
}

func (s *stubTotals) UpsertAdd(context.Context, int64, models.DateBucket, int64) error { return nil }
func (s *stubTotals) ApplySession(context.Context, models.SessionClose) (bool, error) {
	return true, nil
}
func (s *stubTotals) GetBucketTotal(context.Context, int64, models.DateBucket) (int64, bool, error) {
	return 0, false, nil
}
func (s *stubTotals) AggregateByWindow(context.Context, models.Window, models.Reducer) ([]models.Aggregate, error) {
	return s.rows, s.err
}
func (s *stubTotals) BucketOf(int64) models.DateBucket { return "1970-01-01" }

func newRanking(rows []models.Aggregate, titles map[int64]string) (*RankingService, *testutil.MockTransport, *testutil.MockCache) {
	transport := &testutil.MockTransport{Titles: titles}
	cache := testutil.NewMockCache()
	rs := NewRankingService(&stubTotals{rows: rows}, transport, cache, &testutil.MockLogger{}).(*RankingService)
	return rs, transport, cache
}

func TestLeaderboard_WinnerIsHighest(t *testing.T) {
	rs, _, _ := newRanking([]models.Aggregate{
		{ConversationID: 1, Value: 200},
		{ConversationID: 2, Value: 600},
	}, map[int64]string{1: "A", 2: "B"})

	board, err := rs.Leaderboard(context.Background(), models.BoardQuery{Window: models.WindowWeek, Reducer: models.ReducerSum})
	require.NoError(t, err)
	require.NotNil(t, board.Winner)
	assert.Equal(t, "B", board.Winner.Name)
	assert.Equal(t, int64(600), board.Winner.Value)
}

func TestLeaderboard_WinnerIndependentOfOrder(t *testing.T) {
	rs, _, _ := newRanking([]models.Aggregate{
		{ConversationID: 2, Value: 600},
		{ConversationID: 1, Value: 200},
	}, map[int64]string{1: "A", 2: "B"})

	board, err := rs.Leaderboard(context.Background(), models.BoardQuery{Window: models.WindowDay, Reducer: models.ReducerSum})
	require.NoError(t, err)
	assert.Equal(t, "B", board.Winner.Name)
}

func TestPickWinner_TieKeepsEarlier(t *testing.T) {
	lines := []models.BoardLine{
		{ConversationID: 1, Value: 300},
		{ConversationID: 2, Value: 300},
		{ConversationID: 3, Value: 100},
	}
	winner := pickWinner(lines)
	require.NotNil(t, winner)
	assert.Equal(t, int64(1), winner.ConversationID)

	assert.Nil(t, pickWinner(nil))
}

func TestLeaderboard_NameFallbackAndCache(t *testing.T) {
	rs, transport, cache := newRanking([]models.Aggregate{
		{ConversationID: 1, Value: 10},
		{ConversationID: 2, Value: 20},
	}, map[int64]string{1: "Standing Club"})
	ctx := context.Background()
	q := models.BoardQuery{Window: models.WindowDay, Reducer: models.ReducerSum}

	board, err := rs.Leaderboard(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Standing Club", board.Lines[0].Name)
	assert.Equal(t, "2", board.Lines[1].Name)
	assert.Equal(t, []byte("Standing Club"), cache.Data["name:1"])
	_, cached := cache.Data["name:2"]
	assert.False(t, cached, "fallback names are not cached")

	_, err = rs.Leaderboard(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 3, transport.TitleHits)
}

func TestInvalidateBoards(t *testing.T) {
	rs, _, cache := newRanking(nil, nil)
	cache.Set("board:week:sum", []byte("{}"))
	cache.Set("board:all:avg", []byte("{}"))
	cache.Set("name:1", []byte("Standing Club"))

	rs.InvalidateBoards()

	assert.Equal(t, map[string][]byte{"name:1": []byte("Standing Club")}, cache.Data)
}

func TestBoardCacheKey(t *testing.T) {
	assert.Equal(t, "board:month:avg", BoardCacheKey(models.BoardQuery{Window: models.WindowMonth, Reducer: models.ReducerAvg}))
}

func TestLeaderboard_StorageError(t *testing.T) {
	rs := NewRankingService(&stubTotals{err: models.NewStorageError("aggregate", errors.New("locked"))},
		&testutil.MockTransport{}, testutil.NewMockCache(), &testutil.MockLogger{})

	_, err := rs.Leaderboard(context.Background(), models.BoardQuery{Window: models.WindowDay, Reducer: models.ReducerSum})
	assert.True(t, models.IsStorageError(err))

	_, err = rs.Report(context.Background())
	assert.Error(t, err)
}

func TestReport_Format(t *testing.T) {
	rs, _, _ := newRanking([]models.Aggregate{
		{ConversationID: 1, Value: 200},
		{ConversationID: 2, Value: 3725},
	}, map[int64]string{1: "A", 2: "B"})

	report, err := rs.Report(context.Background(), models.BoardQuery{Window: models.WindowMonth, Reducer: models.ReducerAvg})
	require.NoError(t, err)
	assert.Equal(t, "Average per day, month:\nA: 0 hours 3 minutes 20 seconds\nB: 1 hours 2 minutes 5 seconds\nWinner: B with 1 hours 2 minutes 5 seconds", report)
}

func TestReport_DefaultsAndEmpty(t *testing.T) {
	rs, _, _ := newRanking(nil, nil)

	report, err := rs.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Total, day:\nNobody has stood yet.\n\nTotal, week:\nNobody has stood yet.\n\nTotal, month:\nNobody has stood yet.\n\nTotal, year:\nNobody has stood yet.", report)
}
