// Package storage is the optional relational sink for aggregated matches.
// The pipeline degrades to file-only mode when no DSN is configured.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

// MatchStore persists matches in PostgreSQL.
type MatchStore struct {
	db *sql.DB
}

// NewMatchStore opens a PostgreSQL connection and ensures the schema.
// Returns nil (persistence disabled) when dsn is empty; a connection
// failure is an error so a misconfigured DSN is visible at startup.
func NewMatchStore(dsn string) (*MatchStore, error) {
	if dsn == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &MatchStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL match store initialized")
	return store, nil
}

func (s *MatchStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS matches (
		id SERIAL PRIMARY KEY,
		external_id VARCHAR(200) NOT NULL,
		sport VARCHAR(50) NOT NULL,
		league VARCHAR(500) NOT NULL DEFAULT '',
		home_team VARCHAR(500) NOT NULL,
		away_team VARCHAR(500) NOT NULL,
		start_time TIMESTAMP NULL,
		is_live BOOLEAN NOT NULL DEFAULT FALSE,
		match_url VARCHAR(1000) NOT NULL DEFAULT '',
		odds_home DECIMAL(10, 4) NOT NULL DEFAULT 0,
		odds_draw DECIMAL(10, 4) NOT NULL DEFAULT 0,
		odds_away DECIMAL(10, 4) NOT NULL DEFAULT 0,
		total_line DECIMAL(10, 4) NULL,
		total_over DECIMAL(10, 4) NOT NULL DEFAULT 0,
		total_under DECIMAL(10, 4) NOT NULL DEFAULT 0,
		handicap_home_line DECIMAL(10, 4) NULL,
		handicap_home_price DECIMAL(10, 4) NOT NULL DEFAULT 0,
		handicap_away_line DECIMAL(10, 4) NULL,
		handicap_away_price DECIMAL(10, 4) NOT NULL DEFAULT 0,
		source VARCHAR(100) NOT NULL,
		parsed_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(external_id, parsed_at)
	);

	CREATE INDEX IF NOT EXISTS idx_matches_external_id ON matches(external_id);
	CREATE INDEX IF NOT EXISTS idx_matches_sport ON matches(sport);
	CREATE INDEX IF NOT EXISTS idx_matches_start_time ON matches(start_time);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// InsertMatch stores one match row. Nil-safe: disabled store is a no-op.
func (s *MatchStore) InsertMatch(ctx context.Context, m *models.Match) error {
	if s == nil {
		return nil
	}

	query := `
	INSERT INTO matches (
		external_id, sport, league, home_team, away_team, start_time, is_live,
		match_url, odds_home, odds_draw, odds_away,
		total_line, total_over, total_under,
		handicap_home_line, handicap_home_price, handicap_away_line, handicap_away_price,
		source
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	var startTime sql.NullTime
	if m.StartTime != nil {
		startTime = sql.NullTime{Time: m.StartTime.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		m.ExternalID, string(m.Sport), m.League, m.HomeTeam, m.AwayTeam, startTime, m.IsLive,
		m.MatchURL, m.Odds.Home, m.Odds.Draw, m.Odds.Away,
		nullFloat(m.Totals.Line), m.Totals.Over, m.Totals.Under,
		nullFloat(m.Handicap.HomeLine), m.Handicap.HomePrice,
		nullFloat(m.Handicap.AwayLine), m.Handicap.AwayPrice,
		m.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.ExternalID, err)
	}
	return nil
}

// QueryMatches returns the most recently parsed matches for a sport.
func (s *MatchStore) QueryMatches(ctx context.Context, sport models.Sport, limit int) ([]models.Match, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT external_id, sport, league, home_team, away_team, start_time, is_live,
		match_url, odds_home, odds_draw, odds_away,
		total_line, total_over, total_under,
		handicap_home_line, handicap_home_price, handicap_away_line, handicap_away_price,
		source
	FROM matches
	WHERE sport = $1
	ORDER BY parsed_at DESC
	LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, string(sport), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		var (
			m         models.Match
			sport     string
			startTime sql.NullTime
			totalLine, homeLine, awayLine sql.NullFloat64
		)
		err := rows.Scan(
			&m.ExternalID, &sport, &m.League, &m.HomeTeam, &m.AwayTeam, &startTime, &m.IsLive,
			&m.MatchURL, &m.Odds.Home, &m.Odds.Draw, &m.Odds.Away,
			&totalLine, &m.Totals.Over, &m.Totals.Under,
			&homeLine, &m.Handicap.HomePrice, &awayLine, &m.Handicap.AwayPrice,
			&m.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		m.Sport = models.Sport(sport)
		if startTime.Valid {
			t := startTime.Time.UTC()
			m.StartTime = &t
		}
		m.Totals.Line = floatPtr(totalLine)
		m.Handicap.HomeLine = floatPtr(homeLine)
		m.Handicap.AwayLine = floatPtr(awayLine)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *MatchStore) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
