// Command morfem is the CLI for the morfem morpheme-segmentation
// toolkit. It ingests segmentation corpora, converts words to and from
// per-letter label sequences, scores predictions, and serves the REST
// API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/glagol-nlp/morfem/core/codec"
	"github.com/glagol-nlp/morfem/core/corpus"
	"github.com/glagol-nlp/morfem/core/eval"
	"github.com/glagol-nlp/morfem/core/features"
	"github.com/glagol-nlp/morfem/core/morpheme"
	"github.com/glagol-nlp/morfem/internal/api"
	"github.com/glagol-nlp/morfem/internal/config"
	"github.com/glagol-nlp/morfem/internal/ingest"
	"github.com/glagol-nlp/morfem/internal/logging"
	"github.com/glagol-nlp/morfem/internal/store"
)

const version = "0.1.0"

// CLI defines the command-line interface for morfem.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" help:"Log format (text, json)"`

	// Command groups (noun-first organization)
	Corpus  CorpusGroup `cmd:"" help:"Corpus operations (ingest, stats, list)"`
	Encode  EncodeCmd   `cmd:"" help:"Encode corpus words into per-letter labels"`
	Decode  DecodeCmd   `cmd:"" help:"Decode simple labels into full positional labels"`
	Eval    EvalCmd     `cmd:"" help:"Score predicted labels against a gold corpus"`
	Export  ExportCmd   `cmd:"" help:"Export trainer features as JSONL"`
	Serve   ServeCmd    `cmd:"" help:"Start REST API server"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// CorpusGroup contains corpus lifecycle operations.
type CorpusGroup struct {
	Ingest CorpusIngestCmd `cmd:"" help:"Load a corpus file into a dataset"`
	Stats  CorpusStatsCmd  `cmd:"" help:"Print statistics for a corpus file"`
	List   CorpusListCmd   `cmd:"" help:"List stored datasets"`
}

// CorpusIngestCmd loads a corpus file into the dataset store.
type CorpusIngestCmd struct {
	Path    string `arg:"" help:"Corpus file (.tsv, optionally .xz compressed)" type:"existingfile"`
	DB      string `name:"db" default:"morfem.db" help:"SQLite database path"`
	Name    string `name:"name" help:"Dataset name (defaults to the file path)"`
	Verify  bool   `name:"verify" help:"Run the label round-trip check over every word"`
	Workers int    `name:"workers" default:"0" help:"Verification parallelism (0 = all CPUs)"`
}

func (c *CorpusIngestCmd) Run() error {
	ctx := context.Background()
	res, err := ingest.File(ctx, c.Path, ingest.Options{
		Workers: c.Workers,
		Verify:  c.Verify,
	})
	if err != nil {
		return err
	}

	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	name := c.Name
	if name == "" {
		name = c.Path
	}
	id, err := st.CreateDataset(ctx, name, c.Path, res.SourceHash)
	if err != nil {
		return err
	}
	if err := st.InsertWords(ctx, id, res.Words); err != nil {
		return err
	}

	fmt.Printf("dataset %s: %d words loaded, %d lines skipped\n", id, res.Loaded, len(res.Skipped))
	fmt.Printf("source blake3: %s\n", res.SourceHash)
	return nil
}

// CorpusStatsCmd prints corpus statistics without storing anything.
type CorpusStatsCmd struct {
	Path string `arg:"" help:"Corpus file (.tsv, optionally .xz compressed)" type:"existingfile"`
}

func (c *CorpusStatsCmd) Run() error {
	res, err := ingest.File(context.Background(), c.Path, ingest.Options{})
	if err != nil {
		return err
	}
	if res.Loaded == 0 {
		return fmt.Errorf("corpus %s contains no parseable words", c.Path)
	}

	stats := corpus.Collect(res.Words)
	fmt.Printf("words:            %d (%d lines skipped)\n", stats.Words, len(res.Skipped))
	fmt.Printf("letters:          %d\n", stats.Letters)
	fmt.Printf("longest word:     %d letters\n", stats.MaxLen)
	fmt.Printf("morphemes/word:   %.2f\n", stats.MorphemesPerWord())
	fmt.Printf("suffixes/word:    %.2f\n", stats.SuffixesPerWord())
	fmt.Println("morpheme kinds:")
	for _, k := range morpheme.Kinds {
		if n := stats.KindCounts[k]; n > 0 {
			fmt.Printf("  %-8s %d\n", k, n)
		}
	}
	fmt.Println("speech parts:")
	for _, sp := range morpheme.SpeechParts {
		if n := stats.SpeechParts[sp]; n > 0 {
			fmt.Printf("  %-8s %d\n", sp, n)
		}
	}
	return nil
}

// CorpusListCmd lists datasets in the store.
type CorpusListCmd struct {
	DB string `name:"db" default:"morfem.db" help:"SQLite database path"`
}

func (c *CorpusListCmd) Run() error {
	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	datasets, err := st.ListDatasets(context.Background())
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		fmt.Println("no datasets")
		return nil
	}
	for _, d := range datasets {
		fmt.Printf("%s  %-20s %6d words  %s\n", d.ID, d.Name, d.WordCount, d.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// EncodeCmd converts corpus records into label sequences, one word per
// line, labels space-separated.
type EncodeCmd struct {
	Path   string `arg:"" optional:"" help:"Corpus file (default stdin)" type:"existingfile"`
	Scheme string `name:"scheme" default:"full" enum:"full,simple" help:"Label scheme (full, simple)"`
}

func (c *EncodeCmd) Run() error {
	res, err := loadCorpus(c.Path)
	if err != nil {
		return err
	}
	encode := codec.EncodeFull
	if c.Scheme == "simple" {
		encode = codec.EncodeSimple
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, w := range res.Words {
		fmt.Fprintln(out, strings.Join(encode(w), " "))
	}
	return nil
}

// DecodeCmd reads simple-scheme label lines and writes the full
// positional labels.
type DecodeCmd struct {
	Path string `arg:"" optional:"" help:"Label file, one word per line (default stdin)" type:"existingfile"`
}

func (c *DecodeCmd) Run() error {
	sequences, err := loadLabelLines(c.Path)
	if err != nil {
		return err
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, seq := range sequences {
		fmt.Fprintln(out, strings.Join(codec.DecodeSimple(seq), " "))
	}
	return nil
}

// EvalCmd scores a predictions file against a gold corpus. Predictions
// carry one word per line as space-separated simple-scheme labels,
// index-aligned with the gold corpus.
type EvalCmd struct {
	Gold        string `arg:"" help:"Gold corpus file" type:"existingfile"`
	Predictions string `arg:"" help:"Predicted labels file" type:"existingfile"`
	Verbose     bool   `name:"verbose" short:"v" help:"Print every mispredicted word"`
}

func (c *EvalCmd) Run() error {
	res, err := ingest.File(context.Background(), c.Gold, ingest.Options{})
	if err != nil {
		return err
	}
	predicted, err := loadLabelLines(c.Predictions)
	if err != nil {
		return err
	}

	m, err := eval.ScoreSimple(predicted, res.Words, eval.Options{Verbose: c.Verbose})
	if err != nil {
		return err
	}

	fmt.Printf("precision:     %.4f\n", m.Precision)
	fmt.Printf("recall:        %.4f\n", m.Recall)
	fmt.Printf("f1:            %.4f\n", m.F1)
	fmt.Printf("accuracy:      %.4f\n", m.Accuracy)
	fmt.Printf("word accuracy: %.4f (%d/%d)\n", m.WordAccuracy, m.CorrectWords, m.Words)
	if c.Verbose {
		for _, mm := range m.Mismatches {
			fmt.Printf("mismatch %s\n  gold: %s\n  pred: %s\n",
				mm.Word, strings.Join(mm.Gold, " "), strings.Join(mm.Predicted, " "))
		}
	}
	return nil
}

// ExportCmd writes one JSON feature record per word for an external
// sequence tagger to train on.
type ExportCmd struct {
	Path string `arg:"" optional:"" help:"Corpus file (default stdin)" type:"existingfile"`
	Pad  bool   `name:"pad" help:"Pad features and targets to the longest word"`
}

func (c *ExportCmd) Run() error {
	res, err := loadCorpus(c.Path)
	if err != nil {
		return err
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)
	for _, w := range res.Words {
		ex, err := features.Build(w)
		if err != nil {
			return err
		}
		if c.Pad {
			ex.Features = features.PadMatrix(ex.Features, res.MaxLen)
			ex.Targets = features.PadTargets(ex.Targets, res.MaxLen)
		}
		if err := enc.Encode(ex); err != nil {
			return err
		}
	}
	return nil
}

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Config string `name:"config" short:"c" help:"YAML config file" type:"path"`
	DB     string `name:"db" default:"morfem.db" help:"SQLite database path"`
	Host   string `name:"host" help:"Bind host (overrides config)"`
	Port   int    `name:"port" help:"Bind port (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	logging.InitLogger(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))

	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := api.NewServer(api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		Version:        version,
		DriverType:     store.DriverType(),
		IngestWorkers:  cfg.Ingest.Workers,
		MaxLineBytes:   cfg.Ingest.MaxLineBytes,
	}, st)
	return srv.Start()
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("morfem version %s (sqlite driver: %s)\n", version, store.DriverType())
	return nil
}

// loadCorpus reads a corpus from a file path or stdin.
func loadCorpus(path string) (*ingest.Result, error) {
	if path != "" {
		return ingest.File(context.Background(), path, ingest.Options{})
	}
	return ingest.Reader(context.Background(), os.Stdin, "stdin", ingest.Options{})
}

// loadLabelLines reads space-separated label sequences, one word per
// line, from a file path or stdin.
func loadLabelLines(path string) ([][]string, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out [][]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, strings.Fields(line))
	}
	return out, scanner.Err()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("morfem"),
		kong.Description("Russian morpheme segmentation toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
