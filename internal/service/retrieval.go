package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	otelad "github.com/rakesh-nandakumar/contextd/internal/adapter/otel"
	"github.com/rakesh-nandakumar/contextd/internal/domain/grounding"
	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
	"github.com/rakesh-nandakumar/contextd/internal/port/database"
)

// RetrievalService runs the manifest-driven pipeline: fetch the enabled
// sections, render their rows through the section templates, and assemble
// the blocks in priority order under the token budget.
type RetrievalService struct {
	store          database.Store
	config         *ManifestConfigService
	sectionTimeout time.Duration
	defaultBudget  int
	metrics        *otelad.Metrics // optional
}

// NewRetrievalService creates a RetrievalService. metrics may be nil.
func NewRetrievalService(store database.Store, config *ManifestConfigService, sectionTimeout time.Duration, defaultBudget int, metrics *otelad.Metrics) *RetrievalService {
	return &RetrievalService{
		store:          store,
		config:         config,
		sectionTimeout: sectionTimeout,
		defaultBudget:  defaultBudget,
		metrics:        metrics,
	}
}

// Retrieve assembles grounding context for a chat query using the persisted
// manifest. It never fails: section errors are isolated and storage
// problems degrade to the default manifest, so the caller always receives
// some context, possibly empty.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, maxTokens int) grounding.Context {
	m, enabled := s.config.Load(ctx)
	return s.run(ctx, &m, enabled, query, maxTokens)
}

// Preview runs the pipeline against a candidate manifest without touching
// the persisted one. Behavior is otherwise identical to Retrieve.
func (s *RetrievalService) Preview(ctx context.Context, m manifest.Manifest, enabled manifest.EnabledSections, query string, maxTokens int) grounding.Context {
	return s.run(ctx, &m, enabled, query, maxTokens)
}

func (s *RetrievalService) run(ctx context.Context, m *manifest.Manifest, enabled manifest.EnabledSections, query string, maxTokens int) grounding.Context {
	if maxTokens <= 0 {
		maxTokens = s.defaultBudget
	}

	active := m.ActiveSections(enabled)

	ctx, span := otelad.StartAssembleSpan(ctx, maxTokens, len(active))
	defer span.End()

	// Fetch sections in parallel, assemble sequentially. A failed or empty
	// section leaves a nil slot; failures never cancel sibling fetches.
	results := make([][]database.Row, len(active))
	g := new(errgroup.Group)
	for i, sec := range active {
		limit := m.ItemLimitFor(sec.Name, sec.Config)
		g.Go(func() error {
			secCtx, secSpan := otelad.StartSectionSpan(ctx, sec.Name, sec.Config.Table, limit)
			defer secSpan.End()

			fetchCtx, cancel := context.WithTimeout(secCtx, s.sectionTimeout)
			defer cancel()

			rows, err := s.store.FetchRows(fetchCtx, database.RowQuery{
				Table:   sec.Config.Table,
				Columns: sec.Config.Columns,
				Limit:   limit,
			})
			if err != nil {
				slog.Warn("section fetch failed, skipping",
					"section", sec.Name,
					"table", sec.Config.Table,
					"error", err,
				)
				secSpan.RecordError(err)
				if s.metrics != nil {
					s.metrics.SectionFailures.Add(secCtx, 1)
				}
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]grounding.Block, 0, len(active))
	for i, sec := range active {
		rows := results[i]
		if len(rows) == 0 {
			continue
		}
		if limit := m.ItemLimitFor(sec.Name, sec.Config); len(rows) > limit {
			rows = rows[:limit]
		}
		blocks = append(blocks, grounding.RenderBlock(sec.Name, sec.Config, rows))
	}

	out := grounding.Assemble(blocks, maxTokens)

	if s.metrics != nil {
		s.metrics.ContextRequests.Add(ctx, 1)
		s.metrics.SectionsIncluded.Add(ctx, int64(len(out.Sections)))
		s.metrics.ContextTokens.Record(ctx, int64(out.TokenEstimate))
	}
	// Retrieval is manifest-driven; the query is logged for correlation only.
	slog.Debug("context assembled",
		"sections", len(out.Sections),
		"tokens", out.TokenEstimate,
		"budget", maxTokens,
		"query_len", len(query),
	)

	return out
}
