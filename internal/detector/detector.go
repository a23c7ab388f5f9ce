// Package detector orchestrates the end-to-end plagiarism check: chunk,
// embed, parallel kNN search, lexical/citation rescoring, aggregation and
// the final percentage/severity verdict.
package detector

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/veridetect/plagiscan/internal/aggregator"
	"github.com/veridetect/plagiscan/internal/apperr"
	"github.com/veridetect/plagiscan/internal/chunker"
	"github.com/veridetect/plagiscan/internal/domain"
	"github.com/veridetect/plagiscan/internal/ports"
)

// Thresholds are the severity band lower bounds (§4.7), configurable so a
// deployment can carry either documented default set.
type Thresholds struct {
	Critical float64
	High     float64
	Medium   float64
	Low      float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 0.95, High: 0.85, Medium: 0.70, Low: 0.50}
}

// Config controls the detector's request-scoped behavior.
type Config struct {
	ChunkConfig         chunker.Config
	Thresholds          Thresholds
	MaxParallelSearches int
	DefaultTopK         int
	DefaultMinScore     float64
	MaxResultsPerSource int
	NumCandidatesFloor  int
	SearchTimeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		ChunkConfig:         chunker.DefaultConfig(),
		Thresholds:          DefaultThresholds(),
		MaxParallelSearches: runtime.NumCPU(),
		DefaultTopK:         10,
		DefaultMinScore:     0.50,
		MaxResultsPerSource: 3,
		NumCandidatesFloor:  100,
		SearchTimeout:       10 * time.Second,
	}
}

// CheckOptions is the closed, enumerated request options bag (§9), every
// field defaulted.
type CheckOptions struct {
	MinSimilarity     float64
	TopK              int
	IncludeAIAnalysis bool
	ExcludeDocs       map[string]struct{}
}

// AIExplainer is the optional hook that may replace the deterministic
// explanation string. It must never influence Percentage or Severity.
type AIExplainer interface {
	Explain(ctx context.Context, v domain.Verdict) (string, error)
}

// Detector holds shared, thread-safe handles to the embedder and vector
// store. It carries no per-request mutable state.
type Detector struct {
	embedder ports.Embedder
	store    ports.VectorStore
	cfg      Config
	explainer AIExplainer
}

func New(embedder ports.Embedder, store ports.VectorStore, cfg Config) *Detector {
	if cfg.MaxParallelSearches <= 0 {
		cfg.MaxParallelSearches = runtime.NumCPU()
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	return &Detector{embedder: embedder, store: store, cfg: cfg}
}

// WithExplainer attaches an optional AI explanation hook.
func (d *Detector) WithExplainer(e AIExplainer) *Detector {
	d.explainer = e
	return d
}

// Check runs the full detection pipeline for text under opts.
func (d *Detector) Check(ctx context.Context, text string, opts CheckOptions) (domain.Verdict, error) {
	requestID := uuid.NewString()
	start := time.Now()

	opts = withOptionDefaults(opts, d.cfg)

	chunks := chunker.Chunk(text, requestID, d.cfg.ChunkConfig)
	if len(chunks) == 0 {
		return domain.Verdict{
			Percentage:  0,
			Severity:    domain.SeveritySafe,
			Matches:     []domain.CandidateMatch{},
			Analyses:    []domain.ChunkAnalysis{},
			Explanation: explain(domain.SeveritySafe, 0),
		}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedStart := time.Now()
	vectors, err := d.embedder.Embed(ctx, texts)
	embedMs := time.Since(embedStart).Milliseconds()
	if err != nil {
		return domain.Verdict{}, err
	}
	if len(vectors) != len(chunks) {
		return domain.Verdict{}, apperr.Internalf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	searchStart := time.Now()
	perChunkCandidates, docsSearched, err := d.searchAll(ctx, chunks, vectors, opts)
	searchMs := time.Since(searchStart).Milliseconds()
	if err != nil {
		return domain.Verdict{}, err
	}

	analyses := make([]domain.ChunkAnalysis, len(chunks))
	var numer, denom float64
	for i, c := range chunks {
		denom += float64(c.WordCount)
		maxCombined := 0.0
		bestDoc := ""
		for _, cand := range perChunkCandidates[i] {
			if cand.CombinedScore > maxCombined {
				maxCombined = cand.CombinedScore
				bestDoc = cand.DocID
			}
		}
		if maxCombined >= opts.MinSimilarity {
			numer += float64(c.WordCount) * maxCombined
		}
		analyses[i] = domain.ChunkAnalysis{
			ChunkIndex:            i,
			Text:                  c.Text,
			MaxCombinedSimilarity: maxCombined,
			Severity:              domain.SeverityForPercentage(maxCombined*100, d.cfg.Thresholds.Critical, d.cfg.Thresholds.High, d.cfg.Thresholds.Medium, d.cfg.Thresholds.Low),
			BestMatchDocID:        bestDoc,
		}
	}

	percentage := 0.0
	if denom > 0 {
		percentage = 100 * numer / denom
	}
	severity := domain.SeverityForPercentage(percentage, d.cfg.Thresholds.Critical, d.cfg.Thresholds.High, d.cfg.Thresholds.Medium, d.cfg.Thresholds.Low)

	topK := opts.TopK
	matches := aggregator.GlobalMatches(perChunkCandidates, topK)

	verdict := domain.Verdict{
		Percentage: percentage,
		Severity:   severity,
		Matches:    matches,
		Analyses:   analyses,
		Metrics: domain.ProcessingMetrics{
			EmbeddingMs:       embedMs,
			SearchMs:          searchMs,
			TotalMs:           time.Since(start).Milliseconds(),
			ChunksAnalyzed:    len(chunks),
			DocumentsSearched: docsSearched,
		},
	}
	verdict.Explanation = explain(severity, countQualifying(analyses, opts.MinSimilarity))

	if opts.IncludeAIAnalysis && d.explainer != nil {
		if text, err := d.explainer.Explain(ctx, verdict); err == nil {
			verdict.Explanation = text
		}
	}

	return verdict, nil
}

// searchAll issues one kNN query per chunk, bounded by MaxParallelSearches,
// and writes results by index so the returned slice's order does not
// depend on completion order.
func (d *Detector) searchAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, opts CheckOptions) ([][]domain.CandidateMatch, int, error) {
	sem := semaphore.NewWeighted(int64(d.cfg.MaxParallelSearches))
	results := make([][]domain.CandidateMatch, len(chunks))

	group, gctx := errgroup.WithContext(ctx)
	docsSeen := &sync.Map{}

	for i := range chunks {
		i := i
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, 0, apperr.Wrap(apperr.DeadlineExceeded, "cancelled while waiting for search slot", err)
		}
		group.Go(func() error {
			defer sem.Release(1)

			searchCtx := gctx
			var cancel context.CancelFunc
			if d.cfg.SearchTimeout > 0 {
				searchCtx, cancel = context.WithTimeout(gctx, d.cfg.SearchTimeout)
				defer cancel()
			}

			params := ports.SearchParams{
				K:                   opts.TopK,
				NumCandidates:       maxInt(d.cfg.NumCandidatesFloor, 10*opts.TopK),
				ExcludeDocs:         opts.ExcludeDocs,
				MinScore:            opts.MinSimilarity,
				MaxResultsPerSource: d.cfg.MaxResultsPerSource,
				TopK:                opts.TopK,
			}
			hits, err := d.store.Search(searchCtx, vectors[i], params)
			if err != nil {
				return apperr.Wrap(apperr.Unavailable, "vector store search failed", err)
			}

			sourcePositions := make(map[string]int, len(hits))
			for rank, h := range hits {
				// Chunk ids are "<doc_id>#<position>"; fall back to the hit's
				// rank when an id does not carry a numeric position.
				position := rank
				if sep := strings.LastIndexByte(h.MatchedChunkID, '#'); sep >= 0 {
					if p, perr := strconv.Atoi(h.MatchedChunkID[sep+1:]); perr == nil {
						position = p
					}
				}
				sourcePositions[h.MatchedChunkID] = position
				docsSeen.Store(h.DocID, struct{}{})
			}

			results[i] = aggregator.RescoreChunk(chunks[i].Text, chunks[i].Position, hits, sourcePositions, aggregator.Options{
				SimilarityLow:       opts.MinSimilarity,
				MaxResultsPerSource: d.cfg.MaxResultsPerSource,
			})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, 0, err
	}

	count := 0
	docsSeen.Range(func(_, _ any) bool { count++; return true })
	return results, count, nil
}

func withOptionDefaults(opts CheckOptions, cfg Config) CheckOptions {
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = cfg.DefaultMinScore
	}
	if opts.TopK <= 0 {
		opts.TopK = cfg.DefaultTopK
	}
	if opts.ExcludeDocs == nil {
		opts.ExcludeDocs = map[string]struct{}{}
	}
	return opts
}

func countQualifying(analyses []domain.ChunkAnalysis, minSimilarity float64) int {
	n := 0
	for _, a := range analyses {
		if a.MaxCombinedSimilarity >= minSimilarity {
			n++
		}
	}
	return n
}

func explain(severity string, qualifying int) string {
	switch severity {
	case domain.SeverityCritical:
		return fmt.Sprintf("Critical plagiarism detected across %d matching segment(s); the input closely reproduces existing source material.", qualifying)
	case domain.SeverityHigh:
		return fmt.Sprintf("High plagiarism risk found in %d segment(s); substantial overlap with existing sources.", qualifying)
	case domain.SeverityMedium:
		return fmt.Sprintf("Moderate similarity found in %d segment(s); review the flagged passages for paraphrasing.", qualifying)
	case domain.SeverityLow:
		return fmt.Sprintf("Minor similarity found in %d segment(s); likely coincidental overlap.", qualifying)
	default:
		return "No significant similarity to known sources was found."
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
