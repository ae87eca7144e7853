package nba

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// scoreboardResponse is the tabular resultSets envelope the stats API uses
// for scoreboard endpoints: parallel header names and row values.
type scoreboardResponse struct {
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

// boxScoreResponse is the nested envelope of the v3 box-score endpoint.
type boxScoreResponse struct {
	BoxScore boxScoreTraditional `json:"boxScoreTraditional"`
}

type boxScoreTraditional struct {
	GameID   string       `json:"gameId"`
	HomeTeam boxScoreTeam `json:"homeTeam"`
	AwayTeam boxScoreTeam `json:"awayTeam"`
}

type boxScoreTeam struct {
	TeamID  int64            `json:"teamId"`
	Players []boxScorePlayer `json:"players"`
}

type boxScorePlayer struct {
	PersonID   int64            `json:"personId"`
	Statistics playerStatistics `json:"statistics"`
}

type playerStatistics struct {
	Minutes string  `json:"minutes"`
	Points  float64 `json:"points"`
}

// ParseScoreboard extracts the games from a scoreboard response
func ParseScoreboard(resp *scoreboardResponse) ([]*store.Game, error) {
	header := findResultSet(resp, "GameHeader")
	if header == nil {
		return nil, fmt.Errorf("scoreboard response missing GameHeader result set")
	}

	idx := make(map[string]int, len(header.Headers))
	for i, name := range header.Headers {
		idx[name] = i
	}
	for _, required := range []string{"GAME_ID", "GAME_DATE_EST", "HOME_TEAM_ID", "VISITOR_TEAM_ID", "GAME_STATUS_TEXT"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("scoreboard GameHeader missing column %s", required)
		}
	}

	var games []*store.Game
	for _, row := range header.RowSet {
		game := &store.Game{
			GameID:     cellString(row, idx["GAME_ID"]),
			HomeTeamID: cellInt64(row, idx["HOME_TEAM_ID"]),
			AwayTeamID: cellInt64(row, idx["VISITOR_TEAM_ID"]),
			Status:     cellString(row, idx["GAME_STATUS_TEXT"]),
		}
		if game.GameID == "" {
			continue
		}

		date, err := parseGameDate(cellString(row, idx["GAME_DATE_EST"]))
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", game.GameID, err)
		}
		game.GameDate = date

		games = append(games, game)
	}

	return games, nil
}

// ParseBoxScore extracts one stat line per player from a box-score response.
// Unparseable minutes become null, never zero.
func ParseBoxScore(resp *boxScoreResponse) []*store.PlayerGameStat {
	gameID := resp.BoxScore.GameID

	var stats []*store.PlayerGameStat
	for _, team := range []boxScoreTeam{resp.BoxScore.HomeTeam, resp.BoxScore.AwayTeam} {
		for _, player := range team.Players {
			stats = append(stats, &store.PlayerGameStat{
				GameID:   gameID,
				PlayerID: player.PersonID,
				TeamID:   team.TeamID,
				Minutes:  ParseMinutes(player.Statistics.Minutes),
				Points:   int(player.Statistics.Points),
			})
		}
	}

	return stats
}

// ParseMinutes converts the provider's minutes value to fractional minutes.
// "MM:SS" becomes MM + SS/60; a bare number passes through; empty or
// unparseable values are null.
func ParseMinutes(v string) sql.NullFloat64 {
	s := strings.TrimSpace(v)
	if s == "" || strings.EqualFold(s, "nan") {
		return sql.NullFloat64{}
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		mm, errM := strconv.ParseFloat(parts[0], 64)
		ss, errS := strconv.ParseFloat(parts[1], 64)
		if errM != nil || errS != nil {
			return sql.NullFloat64{}
		}
		return sql.NullFloat64{Float64: mm + ss/60.0, Valid: true}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func findResultSet(resp *scoreboardResponse, name string) *resultSet {
	for i := range resp.ResultSets {
		if resp.ResultSets[i].Name == name {
			return &resp.ResultSets[i]
		}
	}
	return nil
}

func parseGameDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable game date %q", s)
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprint(row[i])
}

func cellInt64(row []interface{}, i int) int64 {
	if i >= len(row) || row[i] == nil {
		return 0
	}
	switch v := row[i].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
