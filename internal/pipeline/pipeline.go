// Package pipeline orchestrates the batch run: per-team cache check,
// per-season fetch and extraction, cleaning, and the final merge.
//
// Processing is strictly sequential. Teams are handled one at a time and
// seasons within a team one at a time; the only suspension points are the
// politeness and cooldown waits inside the fetch client. Per-season and
// per-team failures are contained and logged, never fatal.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baxromumarov/fbref-downloader/internal/cache"
	"github.com/baxromumarov/fbref-downloader/internal/clean"
	"github.com/baxromumarov/fbref-downloader/internal/config"
	"github.com/baxromumarov/fbref-downloader/internal/httpx"
	"github.com/baxromumarov/fbref-downloader/internal/merge"
	"github.com/baxromumarov/fbref-downloader/internal/observability"
	"github.com/baxromumarov/fbref-downloader/internal/table"
)

type Downloader struct {
	cfg    *config.Config
	client *httpx.Client
	cache  *cache.Cache
}

func New(cfg *config.Config) (*Downloader, error) {
	c, err := cache.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	delayMin, delayMax := cfg.DelayRange()
	client := httpx.NewClient(httpx.Options{
		UserAgent:           cfg.Fetch.UserAgent,
		Timeout:             cfg.Timeout(),
		DelayMin:            delayMin,
		DelayMax:            delayMax,
		RateLimitCooldown:   cfg.RateLimitCooldown(),
		MaxRateLimitRetries: cfg.Fetch.MaxRateLimitRetries,
		TransportWait:       cfg.TransportWait(),
	})

	return &Downloader{cfg: cfg, client: client, cache: c}, nil
}

// Run processes every configured team in order, merges the cleaned
// datasets, and writes the combined CSV. Zero teams with usable data is
// reported distinctly but is not an error.
func (d *Downloader) Run(ctx context.Context) error {
	var datasets [][]clean.MatchRecord

	for _, team := range d.cfg.Teams {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, ok := d.DownloadTeam(ctx, team)
		if !ok {
			slog.Warn("no data for team", "team", team.Name)
			observability.IncTeamsSkipped()
			continue
		}

		records := clean.Clean(raw)
		if len(records) == 0 {
			slog.Warn("no usable rows after cleaning", "team", team.Name)
			observability.IncTeamsSkipped()
			continue
		}
		datasets = append(datasets, records)
	}

	combined := merge.Merge(datasets)
	if len(combined) == 0 {
		slog.Warn("no valid datasets were downloaded")
		return nil
	}

	n, err := merge.WriteCSV(d.cfg.Output, combined)
	if err != nil {
		return fmt.Errorf("write combined dataset: %w", err)
	}
	observability.AddRowsMerged(n)

	slog.Info("saved combined dataset",
		"path", d.cfg.Output,
		"matches", n,
		"stats", observability.Snapshot(),
	)
	return nil
}

// DownloadTeam returns the team's raw match-log table. A cache hit is
// returned verbatim, whatever seasons the current run asked for; otherwise
// every configured season is fetched, extracted, tagged, and the
// concatenation is cached. Reports false when no season yielded rows.
func (d *Downloader) DownloadTeam(ctx context.Context, team config.Team) (*table.RawTable, bool) {
	if cached, ok := d.cache.Load(team.Name); ok {
		slog.Info("cached file found, skipping download", "team", team.Name)
		observability.IncTeamsCached()
		return cached, true
	}

	slog.Info("fetching match logs", "team", team.Name)
	var logs []*table.RawTable

	for _, season := range d.cfg.Seasons {
		if ctx.Err() != nil {
			break
		}

		seasonTable, err := d.fetchSeason(ctx, team, season)
		if err != nil {
			slog.Warn("season skipped",
				"team", team.Name,
				"season", season,
				"reason", observability.Classify(err),
				"error", err,
			)
			observability.IncError(observability.Classify(err), "fetch")
			observability.IncSeasonsSkipped()
			continue
		}

		slog.Info("season downloaded", "team", team.Name, "season", season, "matches", len(seasonTable.Rows))
		observability.AddRowsExtracted(len(seasonTable.Rows))
		logs = append(logs, seasonTable)
	}

	if len(logs) == 0 {
		return nil, false
	}
	if ctx.Err() != nil {
		// Cancelled mid-team: the season set is incomplete, and a stored
		// artifact would be treated as authoritative forever.
		slog.Warn("run cancelled mid-team, discarding partial data", "team", team.Name)
		return nil, false
	}

	combined := table.Concat(logs)
	if err := d.cache.Store(team.Name, combined); err != nil {
		// A cache write problem should not cost us the data we already
		// fetched; the next run just refetches.
		slog.Warn("cache store failed", "team", team.Name, "error", err)
		observability.IncError(observability.ErrorCacheWrite, "cache")
	}
	observability.IncTeamsDownloaded()
	return combined, true
}

func (d *Downloader) fetchSeason(ctx context.Context, team config.Team, season string) (*table.RawTable, error) {
	url := d.matchlogURL(team, season)

	body, err := d.client.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	observability.IncPagesFetched()

	t, err := table.Extract(body)
	if err != nil {
		return nil, err
	}
	table.Tag(t, team.Name, season)
	return t, nil
}

func (d *Downloader) matchlogURL(team config.Team, season string) string {
	return fmt.Sprintf(
		"%s/en/squads/%s/%s/matchlogs/all_comps/schedule/%s-Scores-and-Fixtures-All-Competitions",
		d.cfg.BaseURL, team.ID, season, team.Name,
	)
}
