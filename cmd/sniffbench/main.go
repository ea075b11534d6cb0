// Command sniffbench runs the dialect-detection engine against a corpus of
// labeled fixtures and reports accuracy.
//
// A corpus is a directory of sample files. Each fixture "name.ext" may carry
// a sidecar "name.ext.dialect.json" describing its ground truth:
//
//	{"delimiter": ",", "quote": "\"", "has_header": true}
//
// Files without a sidecar are skipped. Results are persisted to a SQLite
// database (see internal/benchstore) and, when -metrics=datadog is set,
// published as Datadog metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"csvsniff"
	"csvsniff/internal/acquire"
	"csvsniff/internal/benchstore"
	"csvsniff/internal/candidate"
	"csvsniff/internal/metrics"
	"csvsniff/internal/metrics/datadog"
	"csvsniff/internal/types"
)

const sidecarSuffix = ".dialect.json"

// sidecar is the on-disk ground-truth format for one fixture.
type sidecar struct {
	Delimiter string `json:"delimiter"`
	Quote     string `json:"quote"`
	HasHeader bool   `json:"has_header"`
}

func main() {
	var (
		flagCorpus  = flag.String("corpus", "", "Directory containing labeled fixture files")
		flagDB      = flag.String("db", "file:sniffbench.db", "SQLite DSN for persisting fixtures and run history")
		flagMetrics = flag.String("metrics", "none", "Metrics backend: none|datadog")
		flagJob     = flag.String("job", "sniffbench", "Job tag attached to published metrics")
	)
	flag.Parse()

	if strings.TrimSpace(*flagCorpus) == "" {
		fmt.Fprintln(os.Stderr, "missing -corpus")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := benchstore.Open(ctx, *flagDB)
	if err != nil {
		log.Fatalf("sniffbench: open store: %v", err)
	}
	defer store.Close()

	if strings.EqualFold(*flagMetrics, "datadog") {
		backend, err := datadog.NewBackend(ctx, datadog.Options{JobName: *flagJob})
		if err != nil {
			log.Fatalf("sniffbench: init datadog backend: %v", err)
		}
		metrics.SetBackend(backend)
		defer backend.Close()
	}

	fixtures, err := discoverFixtures(*flagCorpus)
	if err != nil {
		log.Fatalf("sniffbench: discover fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		log.Fatalf("sniffbench: no labeled fixtures found under %s", *flagCorpus)
	}

	// approxCandidateCount mirrors the full unforced candidate set; it is
	// reported as a proxy for scoring work done, since the public Sniff API
	// does not expose per-call candidate counts.
	approxCandidateCount := len(candidate.Generate(types.LF, candidate.Options{}))

	corpusName := filepath.Base(strings.TrimRight(*flagCorpus, "/"))

	total, matched := 0, 0
	for _, f := range fixtures {
		if err := store.UpsertFixture(ctx, f.fixture); err != nil {
			log.Fatalf("sniffbench: upsert fixture %s: %v", f.fixture.ID, err)
		}

		sample, err := acquire.FetchFile(f.path, acquire.Cap{Kind: acquire.CapNone})
		if err != nil {
			log.Printf("sniffbench: skipping %s: %v", f.path, err)
			continue
		}

		start := time.Now()
		meta, err := csvsniff.Sniff(sample, csvsniff.DefaultOptions())
		elapsed := time.Since(start)
		if err != nil {
			log.Printf("sniffbench: %s: sniff failed: %v", f.path, err)
			continue
		}

		delimiterMatch := meta.Dialect.Delimiter == f.fixture.ExpectedDelimiter
		quoteMatch := meta.Dialect.Quote == f.fixture.ExpectedQuote
		ok := delimiterMatch && quoteMatch && meta.Header.HasHeaderRow == f.fixture.ExpectedHasHeader

		total++
		if ok {
			matched++
		}

		run := benchstore.RunResult{
			FixtureID:         f.fixture.ID,
			DetectedDelimiter: meta.Dialect.Delimiter,
			DetectedQuote:     meta.Dialect.Quote,
			Matched:           ok,
			DelimiterMatch:    delimiterMatch,
			QuoteMatch:        quoteMatch,
			DurationMS:        elapsed.Seconds() * 1000,
			CandidatesScored:  approxCandidateCount,
			RanAt:             time.Now(),
		}
		if err := store.RecordRun(ctx, run); err != nil {
			log.Fatalf("sniffbench: record run for %s: %v", f.fixture.ID, err)
		}

		metrics.RecordRun(corpusName, ok, elapsed.Seconds(), approxCandidateCount)

		fmt.Printf("%-30s want=%q/%s got=%q/%s %s\n",
			f.fixture.ID,
			string(f.fixture.ExpectedDelimiter), f.fixture.ExpectedQuote,
			string(meta.Dialect.Delimiter), meta.Dialect.Quote,
			resultLabel(ok),
		)
	}

	if total == 0 {
		log.Fatalf("sniffbench: every fixture failed to load or sniff")
	}

	accuracy := float64(matched) / float64(total)
	metrics.RecordAccuracy(corpusName, accuracy)
	if err := metrics.Flush(); err != nil {
		log.Printf("sniffbench: flush metrics: %v", err)
	}

	fmt.Printf("\n%d/%d matched (%.1f%% accuracy)\n", matched, total, accuracy*100)

	summary, err := store.SummarizeRuns(ctx)
	if err != nil {
		log.Fatalf("sniffbench: summarize runs: %v", err)
	}
	fmt.Printf("Delimiter accuracy: %.1f%%\n", summary.DelimiterAccuracy()*100)
	fmt.Printf("Quote accuracy:     %.1f%%\n", summary.QuoteAccuracy()*100)
	fmt.Printf("Precision:          %.3f\n", summary.Precision())
	fmt.Printf("Recall:             %.3f\n", summary.Recall())
	fmt.Printf("F1 score:           %.3f\n", summary.F1Score())
}

func resultLabel(ok bool) string {
	if ok {
		return "OK"
	}
	return "MISMATCH"
}

type discoveredFixture struct {
	fixture benchstore.Fixture
	path    string
}

// discoverFixtures walks dir for sidecar files and pairs each with its
// corresponding data file.
func discoverFixtures(dir string) ([]discoveredFixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []discoveredFixture
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), sidecarSuffix) {
			continue
		}
		dataName := strings.TrimSuffix(e.Name(), sidecarSuffix)
		sidecarPath := filepath.Join(dir, e.Name())
		dataPath := filepath.Join(dir, dataName)

		raw, err := os.ReadFile(sidecarPath)
		if err != nil {
			return nil, fmt.Errorf("read sidecar %s: %w", sidecarPath, err)
		}
		var sc sidecar
		if err := json.Unmarshal(raw, &sc); err != nil {
			return nil, fmt.Errorf("parse sidecar %s: %w", sidecarPath, err)
		}
		if len(sc.Delimiter) != 1 {
			return nil, fmt.Errorf("sidecar %s: delimiter must be a single character", sidecarPath)
		}

		quote := types.NoQuote()
		if sc.Quote != "" && sc.Quote != "none" {
			if len(sc.Quote) != 1 {
				return nil, fmt.Errorf("sidecar %s: quote must be a single character or \"none\"", sidecarPath)
			}
			quote = types.WithQuote(sc.Quote[0])
		}

		out = append(out, discoveredFixture{
			fixture: benchstore.Fixture{
				ID:                dataName,
				Path:              dataPath,
				ExpectedDelimiter: sc.Delimiter[0],
				ExpectedQuote:     quote,
				ExpectedHasHeader: sc.HasHeader,
			},
			path: dataPath,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].fixture.ID < out[j].fixture.ID })
	return out, nil
}
