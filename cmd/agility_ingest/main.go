package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	agility "agility-analyzer"
	"agility-analyzer/config"
	"agility-analyzer/export"
	"agility-analyzer/ingest"
	"agility-analyzer/store"
)

func main() {
	var (
		inPath    = flag.String("in", "", "Path to input file (.csv, .txt, .xlsx, .fit)")
		subjectID = flag.String("subject", "", "Subject id for FIT input (required for .fit)")
		outPath   = flag.String("export", "", "Optional export path (.csv or .parquet)")
		dryRun    = flag.Bool("dry-run", false, "Parse and report without touching the store")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in data.csv [--export out.parquet] [--dry-run]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*inPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "agility_ingest: bad configuration: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)

	ing := ingest.New(log)
	result, err := runIngest(ing, *inPath, *subjectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agility_ingest failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("parsed %s\n", *inPath)
	fmt.Printf("data rows:     %d\n", result.TotalRows)
	fmt.Printf("valid records: %d\n", result.ValidRows)
	fmt.Printf("errors:        %d\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}

	agg := agility.Aggregate(result.Records)
	for _, s := range agility.UploadSuggestions(agg, len(result.Errors)) {
		fmt.Printf("note: %s\n", s)
	}

	if !*dryRun {
		backend := store.NewFileStore(cfg.StorePath)
		coll, err := store.Open(backend, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agility_ingest: open store: %v\n", err)
			os.Exit(1)
		}
		coll.AddAll(result.Records)
		fmt.Printf("store:         %s (%d records total)\n", cfg.StorePath, coll.Len())
	}

	if *outPath != "" {
		if err := export.WriteFile(*outPath, result.Records); err != nil {
			fmt.Fprintf(os.Stderr, "agility_ingest: export: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("exported:      %s\n", *outPath)
	}
}

func runIngest(ing *ingest.Ingestor, path, subjectID string) (*ingest.Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ing.ParseWorkbook(f)
	case ".fit":
		if subjectID == "" {
			return nil, fmt.Errorf("--subject is required for FIT input")
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ing.ParseFIT(f, subjectID)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ing.ParseCSV(string(raw))
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
