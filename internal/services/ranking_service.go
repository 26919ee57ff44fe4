package services

import (
	"context"
	"fmt"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/services/interfaces"
	storage "standbot/internal/storage/interfaces"
	"standbot/internal/timeutil"
	"strconv"
	"strings"
)

const (
	nameCachePrefix  = "name:"
	boardCachePrefix = "board:"
)

// BoardCacheKey is where a rendered leaderboard for query is cached.
func BoardCacheKey(query models.BoardQuery) string {
	return boardCachePrefix + string(query.Window) + ":" + string(query.Reducer)
}

// DefaultBoardQueries is what /stats reports without arguments.
var DefaultBoardQueries = []models.BoardQuery{
	{Window: models.WindowDay, Reducer: models.ReducerSum},
	{Window: models.WindowWeek, Reducer: models.ReducerSum},
	{Window: models.WindowMonth, Reducer: models.ReducerSum},
	{Window: models.WindowYear, Reducer: models.ReducerSum},
}

type RankingServiceInterface interface {
	Leaderboard(ctx context.Context, query models.BoardQuery) (*models.Leaderboard, error)
	Report(ctx context.Context, queries ...models.BoardQuery) (string, error)
	InvalidateBoards()
}

type RankingService struct {
	totals   storage.TotalsStoreInterface
	resolver interfaces.NameResolver
	cache    providers.CacheProviderInterface
	logger   providers.Logger
}

func NewRankingService(totals storage.TotalsStoreInterface, resolver interfaces.NameResolver, cache providers.CacheProviderInterface, logger providers.Logger) RankingServiceInterface {
	return &RankingService{
		totals:   totals,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

// displayName resolves a conversation title, falling back to the numeric id.
// Only successful lookups are cached.
func (rs *RankingService) displayName(ctx context.Context, conversationID int64) string {
	key := nameCachePrefix + strconv.FormatInt(conversationID, 10)
	if cached, ok := rs.cache.Get(key); ok {
		return string(cached)
	}

	title, err := rs.resolver.ConversationTitle(ctx, conversationID)
	if err != nil || title == "" {
		rs.logger.Debugf(providers.TypeTransport, "No title for conversation %d: %v", conversationID, err)
		return strconv.FormatInt(conversationID, 10)
	}
	rs.cache.Set(key, []byte(title))
	return title
}

func (rs *RankingService) Leaderboard(ctx context.Context, query models.BoardQuery) (*models.Leaderboard, error) {
	rows, err := rs.totals.AggregateByWindow(ctx, query.Window, query.Reducer)
	if err != nil {
		return nil, err
	}

	board := &models.Leaderboard{
		Window:  query.Window,
		Reducer: query.Reducer,
		Lines:   make([]models.BoardLine, 0, len(rows)),
	}
	for _, row := range rows {
		board.Lines = append(board.Lines, models.BoardLine{
			ConversationID: row.ConversationID,
			Name:           rs.displayName(ctx, row.ConversationID),
			Value:          row.Value,
			Formatted:      timeutil.FormatTotal(row.Value),
		})
	}
	board.Winner = pickWinner(board.Lines)
	return board, nil
}

// InvalidateBoards drops every cached leaderboard. Called whenever totals change.
func (rs *RankingService) InvalidateBoards() {
	for _, w := range models.Windows {
		for _, r := range models.Reducers {
			rs.cache.Del(BoardCacheKey(models.BoardQuery{Window: w, Reducer: r}))
		}
	}
}

// pickWinner returns the first line whose value is strictly greater than
// every line before it. Ties keep the earlier line.
func pickWinner(lines []models.BoardLine) *models.BoardLine {
	var best *models.BoardLine
	for i := range lines {
		if best == nil || lines[i].Value > best.Value {
			best = &lines[i]
		}
	}
	if best == nil {
		return nil
	}
	winner := *best
	return &winner
}

func boardTitle(query models.BoardQuery) string {
	switch query.Reducer {
	case models.ReducerAvg:
		return fmt.Sprintf("Average per day, %s", query.Window)
	default:
		return fmt.Sprintf("Total, %s", query.Window)
	}
}

func formatBoard(board *models.Leaderboard) string {
	var b strings.Builder
	b.WriteString(boardTitle(models.BoardQuery{Window: board.Window, Reducer: board.Reducer}))
	b.WriteString(":\n")
	if len(board.Lines) == 0 {
		b.WriteString(msgNoTotals)
		return b.String()
	}
	for _, line := range board.Lines {
		fmt.Fprintf(&b, "%s: %s\n", line.Name, line.Formatted)
	}
	if board.Winner != nil {
		fmt.Fprintf(&b, "Winner: %s with %s", board.Winner.Name, board.Winner.Formatted)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (rs *RankingService) Report(ctx context.Context, queries ...models.BoardQuery) (string, error) {
	if len(queries) == 0 {
		queries = DefaultBoardQueries
	}

	sections := make([]string, 0, len(queries))
	for _, q := range queries {
		board, err := rs.Leaderboard(ctx, q)
		if err != nil {
			return "", err
		}
		sections = append(sections, formatBoard(board))
	}
	return strings.Join(sections, "\n\n"), nil
}
