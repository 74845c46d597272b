// Package aggregator orchestrates one full pipeline run: fan out every
// enabled adapter, gather their results tolerating individual failures,
// merge across sources, persist, publish the snapshot, and report.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/cache"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/config"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/notify"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/publish"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/storage"
)

// Aggregator runs the fetch-merge-publish cycle. Adapters are built
// fresh for every run from the registry, so a run never observes another
// run's adapter state.
type Aggregator struct {
	cfg       *config.Config
	deps      adapters.Deps
	publisher *publish.Publisher
	notifier  *notify.Notifier // nil-safe
	seen      *cache.SeenCache // nil-safe
	store     *storage.MatchStore

	// build is replaced in tests to inject fake adapters.
	build func(names []string, deps adapters.Deps) ([]adapters.Adapter, error)
}

func New(cfg *config.Config, deps adapters.Deps, publisher *publish.Publisher,
	notifier *notify.Notifier, seen *cache.SeenCache, store *storage.MatchStore) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		deps:      deps,
		publisher: publisher,
		notifier:  notifier,
		seen:      seen,
		store:     store,
		build:     adapters.Build,
	}
}

// sourceResult is one adapter's gathered outcome.
type sourceResult struct {
	name    string
	matches []models.Match
	err     error
}

// RunOnce executes a single pipeline cycle and returns the published
// record count. It fails only when no source produced anything and the
// snapshot could not be refreshed.
func (a *Aggregator) RunOnce(ctx context.Context) (int, error) {
	started := time.Now()
	names := a.enabledAdapters()
	if len(names) == 0 {
		return 0, errors.New("no adapters enabled")
	}

	built, err := a.build(names, a.deps)
	if err != nil {
		return 0, fmt.Errorf("build adapters: %w", err)
	}

	results := gather(ctx, built)

	bySource := map[string][]models.Match{}
	perSource := map[string]int{}
	failures := map[string]string{}
	for _, res := range results {
		switch {
		case errors.Is(res.err, apperrors.ErrConfigMissing):
			// Not configured is a disabled source, not a failure.
			slog.Info("Adapter skipped", "adapter", res.name, "reason", res.err)
		case res.err != nil:
			slog.Error("Adapter failed", "adapter", res.name, "error", res.err)
			failures[res.name] = res.err.Error()
		default:
			slog.Info("Adapter finished", "adapter", res.name, "matches", len(res.matches))
			bySource[res.name] = res.matches
			perSource[res.name] = len(res.matches)
		}
	}

	if len(bySource) == 0 {
		a.alertRunFailure(failures)
		return 0, fmt.Errorf("all %d adapters failed", len(failures))
	}

	merged := Merge(bySource, a.cfg.Aggregator.SourcePriority)
	a.persist(ctx, merged)

	count, err := a.publisher.Publish(merged)
	if err != nil {
		a.alertPublishFailure(err)
		return 0, fmt.Errorf("publish snapshot: %w", err)
	}

	slog.Info("Aggregation run complete",
		"published", count,
		"sources", len(bySource),
		"failed_sources", len(failures),
		"duration", time.Since(started).Round(time.Millisecond))
	if a.notifier != nil {
		a.notifier.SendRunReport(count, perSource, failures)
	}
	return count, nil
}

// enabledAdapters resolves the adapter set for a run. An explicit config
// list wins; otherwise every registered adapter runs, with the headless
// browser source opt-in only.
func (a *Aggregator) enabledAdapters() []string {
	if len(a.cfg.Adapters.Enabled) > 0 {
		return a.cfg.Adapters.Enabled
	}

	var names []string
	for _, name := range adapters.AvailableNames() {
		if name == "winline" && !a.cfg.Adapters.Winline.Enabled {
			continue
		}
		names = append(names, name)
	}
	return names
}

// gather runs every adapter concurrently and collects settled results.
// Each adapter is closed exactly once, whether it succeeded or not.
func gather(ctx context.Context, built []adapters.Adapter) []sourceResult {
	results := make([]sourceResult, len(built))

	var wg sync.WaitGroup
	for i, ad := range built {
		wg.Add(1)
		go func(i int, ad adapters.Adapter) {
			defer wg.Done()
			defer func() {
				if err := ad.Close(); err != nil {
					slog.Warn("Adapter close failed", "adapter", ad.Name(), "error", err)
				}
			}()

			matches, err := ad.FetchAndParse(ctx)
			results[i] = sourceResult{name: ad.Name(), matches: matches, err: err}
		}(i, ad)
	}
	wg.Wait()
	return results
}

// persist writes merged matches to the optional sinks. The seen cache
// suppresses re-inserting a match already stored within the TTL window;
// sink errors never fail the run.
func (a *Aggregator) persist(ctx context.Context, merged []models.Match) {
	if a.store == nil {
		return
	}
	var inserted int
	for i := range merged {
		if a.seen.Seen(ctx, &merged[i]) {
			continue
		}
		if err := a.store.InsertMatch(ctx, &merged[i]); err != nil {
			slog.Warn("Match insert failed", "external_id", merged[i].ExternalID, "error", err)
			continue
		}
		inserted++
	}
	if inserted > 0 {
		slog.Debug("Matches persisted", "inserted", inserted, "total", len(merged))
	}
}

func (a *Aggregator) alertRunFailure(failures map[string]string) {
	slog.Error("Aggregation run produced no data", "failed_sources", len(failures))
	if a.notifier == nil {
		return
	}
	body := "Не удалось получить данные ни из одного источника."
	for name, msg := range failures {
		body += fmt.Sprintf("\n%s: %s", name, msg)
	}
	a.notifier.Send("Сбой агрегации", body)
}

func (a *Aggregator) alertPublishFailure(err error) {
	if a.notifier == nil {
		return
	}
	a.notifier.Send("Сбой публикации", fmt.Sprintf("Не удалось записать снапшот: %v", err))
}
