// Package ingest loads morpheme corpora from TSV files. Lines that fail
// to parse recoverably are skipped and logged; non-recoverable errors
// abort the load. Files ending in .xz are decompressed transparently.
package ingest

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/glagol-nlp/morfem/core/codec"
	"github.com/glagol-nlp/morfem/core/corpus"
	apperrors "github.com/glagol-nlp/morfem/core/errors"
	"github.com/glagol-nlp/morfem/core/morpheme"
	"github.com/glagol-nlp/morfem/internal/logging"
)

// SkippedLine records one recoverable rejection.
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Result is the outcome of loading one corpus source.
type Result struct {
	Words      []*morpheme.Word `json:"-"`
	Loaded     int              `json:"loaded"`
	Skipped    []SkippedLine    `json:"skipped,omitempty"`
	SourceHash string           `json:"source_hash"`
	MaxLen     int              `json:"max_len"`
}

// Options controls ingestion.
type Options struct {
	// Workers is the parallelism of the post-load verification pass.
	// Zero means GOMAXPROCS.
	Workers int
	// MaxLineBytes bounds a single input line. Zero means 1 MiB.
	MaxLineBytes int
	// Verify runs an encode/decode round trip over every loaded word
	// after parsing.
	Verify bool
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) maxLineBytes() int {
	if o.MaxLineBytes > 0 {
		return o.MaxLineBytes
	}
	return 1 << 20
}

// File loads a corpus from disk. A ".xz" suffix selects transparent
// decompression.
func File(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(bufio.NewReader(f))
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream %s: %w", path, err)
		}
		src = xr
	}
	res, err := Reader(ctx, src, path, opts)
	if err != nil {
		return nil, err
	}
	logging.IngestSummary(path, res.Loaded, len(res.Skipped))
	return res, nil
}

// Reader loads a corpus from r. The name is used only for log output.
// The source hash covers the bytes exactly as read from r, after any
// decompression done by the caller.
func Reader(ctx context.Context, r io.Reader, name string, opts Options) (*Result, error) {
	hasher := blake3.New()
	scanner := bufio.NewScanner(io.TeeReader(r, hasher))
	scanner.Buffer(make([]byte, 64*1024), opts.maxLineBytes())

	res := &Result{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%50000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		w, err := corpus.ParseLine(line)
		if err != nil {
			if apperrors.Recoverable(err) {
				logging.RejectedLine(name, lineNo, err.Error())
				res.Skipped = append(res.Skipped, SkippedLine{
					Line:   lineNo,
					Text:   line,
					Reason: err.Error(),
				})
				continue
			}
			return nil, apperrors.WithLine(err, lineNo)
		}
		res.Words = append(res.Words, w)
		if n := w.TotalLen(); n > res.MaxLen {
			res.MaxLen = n
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", name, err)
	}
	res.Loaded = len(res.Words)
	res.SourceHash = hex.EncodeToString(hasher.Sum(nil))

	if opts.Verify {
		if err := verify(ctx, res.Words, opts.workers()); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// verify runs the label round trip over every word in parallel: the
// simple encoding, once decoded, must reproduce the full encoding.
func verify(ctx context.Context, words []*morpheme.Word, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, w := range words {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			full := codec.EncodeFull(w)
			got := codec.DecodeSimple(codec.EncodeSimple(w))
			if len(got) != len(full) {
				return fmt.Errorf("word %d (%s): round trip length %d, want %d", i+1, w.Text(), len(got), len(full))
			}
			for j := range full {
				if got[j] != full[j] {
					return fmt.Errorf("word %d (%s): round trip label %d is %s, want %s", i+1, w.Text(), j, got[j], full[j])
				}
			}
			return nil
		})
	}
	return g.Wait()
}
