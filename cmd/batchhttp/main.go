// Command batchhttp runs a batch of HTTP requests described by a
// newline-delimited JSON manifest and writes one response record per
// request to an output manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deploymenttheory/batchhttp/helpers"
	"github.com/deploymenttheory/batchhttp/internal/engine"
	"github.com/deploymenttheory/batchhttp/internal/engineconfig"
	"github.com/deploymenttheory/batchhttp/internal/enginelog"
	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/deploymenttheory/batchhttp/internal/sink"
	"github.com/deploymenttheory/batchhttp/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("batchhttp", flag.ContinueOnError)
	inputPath := fs.String("input", "", "path to the input manifest (newline-delimited JSON)")
	outputPath := fs.String("output", "", "path to the output manifest (defaults to stdout)")
	configPath := fs.String("config", helpers.EnvOrDefault("BATCHHTTP_CONFIG", ""), "path to an engine configuration YAML file")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("%s %s\n", version.AppName, version.Version)
		return 0
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "batchhttp: -input is required")
		return 2
	}

	cfg := engineconfig.DefaultEngineConfig()
	if *configPath != "" {
		loaded, err := engineconfig.LoadEngineConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batchhttp: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	log, err := enginelog.NewProduction(enginelog.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "batchhttp: failed to construct logger: %v\n", err)
		return 1
	}

	inputFile, err := helpers.SafeOpenInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batchhttp: %v\n", err)
		return 1
	}
	defer inputFile.Close()

	lines, err := manifest.DecodeAll(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batchhttp: failed to parse input manifest: %v\n", err)
		return 1
	}

	var out sink.Sink
	if *outputPath == "" {
		out = sink.NewWriterSink(os.Stdout)
	} else {
		fileSink, err := sink.NewFileSink(*outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batchhttp: %v\n", err)
			return 1
		}
		defer fileSink.Close()
		out = fileSink
	}

	requests := make([]manifest.RequestDescriptor, 0, len(lines))
	for _, line := range lines {
		if line.Err != nil {
			if emitErr := out.EmitError(line.FallbackID, line.Err.Error()); emitErr != nil {
				fmt.Fprintf(os.Stderr, "batchhttp: %v\n", emitErr)
				return 1
			}
			continue
		}
		requests = append(requests, *line.Request)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	e := engine.New(cfg, log)
	if err := e.ProcessBatch(ctx, requests, out); err != nil {
		fmt.Fprintf(os.Stderr, "batchhttp: %v\n", err)
		return 1
	}

	return 0
}
