// =============================================================================
// Subledger Mapper - Resolution Pipeline
// =============================================================================
//
// The pipeline is the in-memory core of a run:
//
//   1. Build the mapping repository once from the six rule tables
//   2. Resolve every DTL record (optionally in contiguous shards)
//   3. Fold resolved records into the summary aggregator
//   4. Detect unmatched records
//
// CONCURRENCY:
//   The repository is read-only once built, so shards share it freely. Each
//   shard folds its own aggregator; partial aggregators are merged after all
//   shards finish. Sums are exact decimals, so the merged result equals a
//   single-worker run regardless of shard count.
//
// =============================================================================

package converter

import (
	"sync"

	"github.com/ginjaninja78/subledger-mapper/internal/aggregate"
	"github.com/ginjaninja78/subledger-mapper/internal/mapping"
	"github.com/ginjaninja78/subledger-mapper/internal/resolver"
	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Inputs are the loaded records and rule tables of a run.
type Inputs struct {
	// Records are the DTL records to resolve, in file order.
	Records []types.TransactionRecord

	// Tables holds one raw table per rule category.
	Tables map[types.Category]*types.Table
}

// Output is everything a run produces before it is written anywhere.
type Output struct {
	// Records are the resolved records, in input order.
	Records []types.ResolvedRecord

	// Rows are the summary groups in key order.
	Rows []types.SummaryRow

	// Lines is the debit/credit reporting view of Rows plus the total line.
	Lines []types.SummaryLine

	// Unmatched are the flagged records, in input order.
	Unmatched []types.UnmatchedRecord

	// TotalDebit and TotalCredit are exact sums over every resolved record.
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal

	// Tables describes each indexed rule table.
	Tables map[types.Category]mapping.TableStats
}

// Pipeline resolves and aggregates a record set.
type Pipeline struct {
	workers int
	labels  resolver.AccountTypeLabels
	logger  *zap.Logger
}

// NewPipeline creates a Pipeline. workers below 1 is treated as 1. A nil
// logger discards output.
func NewPipeline(workers int, logger *zap.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		workers: workers,
		labels:  resolver.DefaultAccountTypeLabels(),
		logger:  logger,
	}
}

// Run builds the repository and processes every record. A missing rule table
// or a table without its required columns fails the whole run before any
// record is resolved.
func (p *Pipeline) Run(in Inputs) (*Output, error) {
	repo, err := mapping.Build(in.Tables)
	if err != nil {
		return nil, err
	}

	stats := repo.Stats()
	for _, category := range types.RequiredCategories {
		s := stats[category]
		p.logger.Debug("indexed mapping table",
			zap.String("category", string(category)),
			zap.Int("rows", s.Rows),
			zap.Int("keys", s.Keys),
		)
		if s.Shadowed > 0 {
			p.logger.Warn("duplicate mapping keys ignored",
				zap.String("category", string(category)),
				zap.Int("shadowed", s.Shadowed),
			)
		}
		if s.Blank > 0 {
			p.logger.Warn("mapping rows with blank key ignored",
				zap.String("category", string(category)),
				zap.Int("blank", s.Blank),
			)
		}
	}

	res := resolver.NewWithLabels(repo, p.labels)
	resolved, agg := p.resolve(res, in.Records)

	totalDebit, totalCredit := agg.Totals()
	rows := agg.Rows()
	unmatched := resolver.DetectAll(resolved)

	p.logger.Info("resolved records",
		zap.Int("records", agg.Records()),
		zap.Int("groups", len(rows)),
		zap.Int("unmatched", len(unmatched)),
	)

	return &Output{
		Records:     resolved,
		Rows:        rows,
		Lines:       aggregate.Lines(rows, totalDebit, totalCredit),
		Unmatched:   unmatched,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Tables:      stats,
	}, nil
}

// shardResult carries one shard's partial aggregation.
type shardResult struct {
	index int
	agg   *aggregate.Aggregator
}

// resolve resolves records into a slice in input order and returns the
// merged aggregator.
func (p *Pipeline) resolve(res *resolver.Resolver, records []types.TransactionRecord) ([]types.ResolvedRecord, *aggregate.Aggregator) {
	workers := p.workers
	if workers > len(records) {
		workers = len(records)
	}

	if workers <= 1 {
		resolved := res.ResolveAll(records)
		agg := aggregate.New()
		agg.AddAll(resolved)
		return resolved, agg
	}

	resolved := make([]types.ResolvedRecord, len(records))
	shardSize := (len(records) + workers - 1) / workers
	shards := (len(records) + shardSize - 1) / shardSize

	var wg sync.WaitGroup
	results := make(chan shardResult, shards)

	for index := 0; index < shards; index++ {
		start := index * shardSize
		end := start + shardSize
		if end > len(records) {
			end = len(records)
		}

		wg.Add(1)
		go func(index, start, end int) {
			defer wg.Done()

			// Shards write disjoint ranges of resolved.
			part := resolved[start:end]
			copy(part, res.ResolveAll(records[start:end]))
			agg := aggregate.New()
			agg.AddAll(part)
			results <- shardResult{index: index, agg: agg}
		}(index, start, end)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	partials := make([]*aggregate.Aggregator, shards)
	for result := range results {
		partials[result.index] = result.agg
	}

	p.logger.Debug("merged shards", zap.Int("shards", shards), zap.Int("shard_size", shardSize))

	merged := aggregate.New()
	for _, partial := range partials {
		merged.Merge(partial)
	}
	return resolved, merged
}
