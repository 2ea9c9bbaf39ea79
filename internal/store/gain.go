package store

import (
	"context"
	"fmt"
)

// GainSummary is the all-time token-saved aggregate over every event.
type GainSummary struct {
	CommandCount    int64
	InputTokensEst  int64
	OutputTokensEst int64
}

// Saved reports the estimated tokens avoided by filtering: the gap between
// what the raw output would have cost and what the filtered output cost.
func (g GainSummary) Saved() int64 {
	return g.InputTokensEst - g.OutputTokensEst
}

// FilterGain is the token-saved aggregate for one named filter.
type FilterGain struct {
	FilterName      string
	CommandCount    int64
	InputTokensEst  int64
	OutputTokensEst int64
}

func (g FilterGain) Saved() int64 { return g.InputTokensEst - g.OutputTokensEst }

// DailyGain is the token-saved aggregate for one calendar day (UTC).
type DailyGain struct {
	Date            string
	CommandCount    int64
	InputTokensEst  int64
	OutputTokensEst int64
}

func (g DailyGain) Saved() int64 { return g.InputTokensEst - g.OutputTokensEst }

// GainSummary aggregates every recorded event.
func (s *Store) GainSummary(ctx context.Context) (GainSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(input_tokens_est),0), COALESCE(SUM(output_tokens_est),0) FROM events`)
	var g GainSummary
	if err := row.Scan(&g.CommandCount, &g.InputTokensEst, &g.OutputTokensEst); err != nil {
		return GainSummary{}, fmt.Errorf("store: gain summary: %w", err)
	}
	return g, nil
}

// GainByFilter aggregates events grouped by filter_name, descending by
// tokens saved. Events with a null filter_name (degraded/raw passthrough)
// are excluded -- there is nothing to attribute the gain to.
func (s *Store) GainByFilter(ctx context.Context) ([]FilterGain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filter_name, COUNT(*), COALESCE(SUM(input_tokens_est),0), COALESCE(SUM(output_tokens_est),0)
		FROM events WHERE filter_name IS NOT NULL
		GROUP BY filter_name
		ORDER BY (COALESCE(SUM(input_tokens_est),0) - COALESCE(SUM(output_tokens_est),0)) DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: gain by filter: %w", err)
	}
	defer rows.Close()

	var out []FilterGain
	for rows.Next() {
		var g FilterGain
		if err := rows.Scan(&g.FilterName, &g.CommandCount, &g.InputTokensEst, &g.OutputTokensEst); err != nil {
			return nil, fmt.Errorf("store: scan filter gain: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GainDaily aggregates events grouped by the UTC calendar date of
// recorded_at, most recent day first.
func (s *Store) GainDaily(ctx context.Context) ([]DailyGain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date(recorded_at), COUNT(*), COALESCE(SUM(input_tokens_est),0), COALESCE(SUM(output_tokens_est),0)
		FROM events
		GROUP BY date(recorded_at)
		ORDER BY date(recorded_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: gain daily: %w", err)
	}
	defer rows.Close()

	var out []DailyGain
	for rows.Next() {
		var g DailyGain
		if err := rows.Scan(&g.Date, &g.CommandCount, &g.InputTokensEst, &g.OutputTokensEst); err != nil {
			return nil, fmt.Errorf("store: scan daily gain: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
