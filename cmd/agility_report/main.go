package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	agility "agility-analyzer"
	"agility-analyzer/aiclient"
	"agility-analyzer/config"
	"agility-analyzer/store"
)

func main() {
	var (
		subjectA = flag.String("subject", "", "Subject id to report on")
		subjectB = flag.String("vs", "", "Optional second subject for comparison")
		external = flag.Bool("external", false, "Also ask the configured external AI service")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --subject P001 [--vs P002] [--external]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*subjectA) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "agility_report: bad configuration: %v\n", err)
		os.Exit(1)
	}
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	coll, err := store.Open(store.NewFileStore(cfg.StorePath), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agility_report: open store: %v\n", err)
		os.Exit(1)
	}
	records := coll.Records()

	aggA := agility.Aggregate(agility.BySubject(records, *subjectA))
	var aggB *agility.Aggregates
	if *subjectB != "" {
		aggB = agility.Aggregate(agility.BySubject(records, *subjectB))
	}

	for _, part := range agility.ComposeReport(aggA, aggB, *subjectA, *subjectB, nil) {
		fmt.Println(part)
		fmt.Println()
	}

	if *external && cfg.AIURL != "" {
		client := aiclient.New(cfg.AIURL, cfg.AIKey, aiclient.Provider(cfg.AIProvider))
		client.Timeout = cfg.AITimeout

		prompt := aiclient.BuildPrompt(aggA, aggB, *subjectA, *subjectB)
		text, err := client.Generate(context.Background(), prompt)
		if err != nil {
			// The external call is additive; the local report above stands.
			log.WithError(err).Warn("external analysis failed, using local report only")
			return
		}
		fmt.Println("External analysis:")
		fmt.Println(text)
	}
}
