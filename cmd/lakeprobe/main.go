package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"songlake/internal/lake"
	"songlake/internal/probe"
)

// main is the entrypoint for the lakeprobe CLI. It samples NDJSON files
// matching a glob under a lake root (local directory or s3://bucket/prefix),
// infers per-field types and null counts, and prints a summary.
//
// The report helps decide how a new feed should map onto warehouse columns
// before wiring it into the pipeline.
func main() {
	var (
		flagRoot = flag.String(
			"root",
			"",
			"Lake root: a local directory or s3://bucket/prefix",
		)
		flagPattern = flag.String(
			"pattern",
			"log_data/*/*/*.json",
			"Store glob for the files to sample",
		)
		flagRows = flag.Int(
			"rows",
			10000,
			"Maximum total rows to sample across all files",
		)
		flagFiles = flag.Int(
			"files",
			0,
			"Maximum files to open (0 = all matches)",
		)
		flagSave = flag.String(
			"save",
			"",
			"Write sampled rows to this local NDJSON file",
		)
		flagJSON = flag.Bool(
			"json",
			false,
			"Print the full report as JSON instead of summary lines",
		)
	)
	flag.Parse()

	if *flagRoot == "" {
		fmt.Fprintln(os.Stderr, "missing -root")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	st, err := lake.Open(*flagRoot, lake.Credentials{
		Region:          os.Getenv("AWS_REGION"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	})
	if err != nil {
		log.Fatalf("open root: %v", err)
	}

	rep, err := probe.Sample(ctx, st, probe.Options{
		Pattern:  *flagPattern,
		MaxRows:  *flagRows,
		MaxFiles: *flagFiles,
		SavePath: *flagSave,
	})
	if err != nil {
		log.Fatalf("probe: %v", err)
	}

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}

	fmt.Printf("pattern=%s files=%d rows=%d\n", rep.Pattern, rep.Files, rep.Rows)
	os.Stdout.Write(rep.Render())
}
