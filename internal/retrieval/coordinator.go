// Package retrieval implements the tiered retrieval coordinator: for each
// screen it attempts an ordered list of strategies against the record source
// until one succeeds, and normalizes the result shape so callers never need
// to know which strategy ran.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotraq/be-waste-dashboard/internal/client"
	"github.com/ecotraq/be-waste-dashboard/internal/metrics"
	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/rejoin"
)

// Retrieval tiers.
const (
	TierView        = 1 // precomputed multi-entity view
	TierDeclarative = 2 // raw read with inline relation expansion
	TierManual      = 3 // raw read plus separately fetched reference sets
)

// LoadResult is the outcome of a screen load. Err is set only when every
// tier failed; an empty Rows with a nil Err is a valid, final result.
type LoadResult struct {
	Rows []record.Row
	Tier int
	Err  error
}

// Coordinator runs the tier cascade for configured screens.
type Coordinator struct {
	src client.RecordSource
	reg Registry
	log zerolog.Logger
}

// NewCoordinator creates a coordinator over the given record source and
// screen registry.
func NewCoordinator(src client.RecordSource, reg Registry, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		src: src,
		reg: reg,
		log: log.With().Str("component", "retrieval").Logger(),
	}
}

// LoadNormalized obtains the best-available normalized collection for a
// screen. Tiers are attempted strictly sequentially; a tier is skipped only
// when the previous one returned an error (an empty collection is final).
// The method never panics and never returns rows shaped differently across
// tiers.
func (c *Coordinator) LoadNormalized(ctx context.Context, screenID string, role record.RoleContext) LoadResult {
	start := time.Now()
	defer func() {
		metrics.LoadDuration.WithLabelValues(screenID).Observe(time.Since(start).Seconds())
	}()

	cfg, err := c.reg.Lookup(screenID)
	if err != nil {
		return LoadResult{Rows: []record.Row{}, Err: err}
	}

	var tierErrs []error

	if cfg.View != "" {
		rows, err := c.loadFromView(ctx, cfg, role)
		if err == nil {
			c.observe(cfg.ID, TierView, "success")
			return LoadResult{Rows: rows, Tier: TierView}
		}
		c.observe(cfg.ID, TierView, "fallback")
		c.log.Warn().Err(err).Str("screen", cfg.ID).Msg("Precomputed view failed, falling back to declarative join")
		tierErrs = append(tierErrs, fmt.Errorf("tier %d: %w", TierView, err))
	}

	rows, err := c.loadDeclarative(ctx, cfg, role)
	if err == nil {
		c.observe(cfg.ID, TierDeclarative, "success")
		return LoadResult{Rows: rows, Tier: TierDeclarative}
	}
	c.observe(cfg.ID, TierDeclarative, "fallback")
	c.log.Warn().Err(err).Str("screen", cfg.ID).Msg("Declarative join failed, falling back to manual join")
	tierErrs = append(tierErrs, fmt.Errorf("tier %d: %w", TierDeclarative, err))

	rows, err = c.loadManual(ctx, cfg, role)
	if err == nil {
		c.observe(cfg.ID, TierManual, "success")
		return LoadResult{Rows: rows, Tier: TierManual}
	}
	c.observe(cfg.ID, TierManual, "fallback")
	tierErrs = append(tierErrs, fmt.Errorf("tier %d: %w", TierManual, err))

	metrics.Exhausted.WithLabelValues(cfg.ID).Inc()
	c.log.Error().Err(errors.Join(tierErrs...)).Str("screen", cfg.ID).Msg("All retrieval tiers exhausted")
	return LoadResult{
		Rows: []record.Row{},
		Err:  fmt.Errorf("all retrieval tiers failed for screen %s: %w", cfg.ID, errors.Join(tierErrs...)),
	}
}

// loadFromView runs tier 1. View results arrive denormalized; the role
// restriction is trusted to the store except for views flagged
// role-agnostic, which are re-filtered client-side for consistency with
// tiers 2/3.
func (c *Coordinator) loadFromView(ctx context.Context, cfg ScreenConfig, role record.RoleContext) ([]record.Row, error) {
	rows, err := c.src.CallView(ctx, cfg.View, role)
	if err != nil {
		return nil, err
	}
	if cfg.ViewRoleAgnostic {
		if p := cfg.roleFilter(role); p != nil {
			rows = filterRows(rows, *p)
		}
	}
	return rows, nil
}

// loadDeclarative runs tier 2: one read with inline relation expansion. A
// relation the store could not resolve arrives embedded as null; the re-join
// pass converts those to the explicit unavailable marker without touching
// relations that resolved.
func (c *Coordinator) loadDeclarative(ctx context.Context, cfg ScreenConfig, role record.RoleContext) ([]record.Row, error) {
	opts := client.ReadOptions{Expand: cfg.expand()}
	if p := cfg.roleFilter(role); p != nil {
		opts.Filter = append(opts.Filter, *p)
	}
	rows, err := c.src.ReadTable(ctx, cfg.Table, opts)
	if err != nil {
		return nil, err
	}
	return rejoin.Rejoin(rows, nil, cfg.Keys), nil
}

// loadManual runs tier 3: a flat read of the primary table, then the
// reference sets, then the in-memory re-join.
func (c *Coordinator) loadManual(ctx context.Context, cfg ScreenConfig, role record.RoleContext) ([]record.Row, error) {
	opts := client.ReadOptions{}
	if p := cfg.roleFilter(role); p != nil {
		opts.Filter = append(opts.Filter, *p)
	}
	rows, err := c.src.ReadTable(ctx, cfg.Table, opts)
	if err != nil {
		return nil, err
	}

	refs := c.fetchRefSets(ctx, cfg, rows)
	return rejoin.Rejoin(rows, refs, cfg.Keys), nil
}

// fetchRefSets loads the reference sets the screen's keys need. The reads
// are mutually independent and issued concurrently, then awaited together.
// A failed reference fetch degrades that relation to unavailable markers
// rather than failing the tier.
func (c *Coordinator) fetchRefSets(ctx context.Context, cfg ScreenConfig, rows []record.Row) map[string]rejoin.RefSet {
	ids := rejoin.CollectIDs(rows, cfg.Keys)
	projections := make(map[string][]string, len(cfg.Keys))
	for _, k := range cfg.Keys {
		projections[k.RefTable] = k.Project
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		refs = make(map[string]rejoin.RefSet, len(ids))
	)
	for table, tableIDs := range ids {
		wg.Add(1)
		go func(table string, tableIDs []string) {
			defer wg.Done()
			fetched, err := c.src.ReadMany(ctx, table, tableIDs)
			if err != nil {
				c.log.Warn().Err(err).
					Str("screen", cfg.ID).
					Str("ref_table", table).
					Msg("Reference set fetch failed, relation will be unavailable")
				return
			}
			set := rejoin.BuildRefSet(fetched, projections[table])
			mu.Lock()
			refs[table] = set
			mu.Unlock()
		}(table, tableIDs)
	}
	wg.Wait()
	return refs
}

func (c *Coordinator) observe(screen string, tier int, outcome string) {
	metrics.TierAttempts.WithLabelValues(screen, strconv.Itoa(tier), outcome).Inc()
}

// filterRows applies an equality predicate in memory. Only used for tier-1
// results of role-agnostic views.
func filterRows(rows []record.Row, p client.Predicate) []record.Row {
	out := make([]record.Row, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.String(p.Field); ok && v == p.Value {
			out = append(out, row)
		}
	}
	return out
}
