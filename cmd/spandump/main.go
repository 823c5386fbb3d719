// spandump is a CLI tool to inspect a tyl-tracing span archive.
//
// Usage:
//
//	spandump -db /path/to/archive
//	spandump -db /path/to/archive -trace <trace-id>
//	spandump -db /path/to/archive -trace <trace-id> -format tree
//
// Exit codes:
//   - 0: Spans printed
//   - 1: Archive could not be read
//   - 2: Usage error (missing required flag)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/the-yaml-life/tyl-tracing"
	"github.com/the-yaml-life/tyl-tracing/spanstore"
	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

var Version = "dev"

func main() {
	var dbPath string
	var traceID string
	var format string
	var showVersion bool

	flag.StringVar(&dbPath, "db", "", "path to span archive directory")
	flag.StringVar(&traceID, "trace", "", "only print spans of this trace ID")
	flag.StringVar(&format, "format", "json", "output format: json or tree")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	logger := tracelog.WithComponent("spandump")

	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --db is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  spandump -db /path/to/archive [-trace <trace-id>] [-format json|tree]")
		os.Exit(2)
	}
	if format != "json" && format != "tree" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (supported: json, tree)\n", format)
		os.Exit(2)
	}

	store, err := spanstore.OpenReadOnly(dbPath)
	if err != nil {
		logger.Error().Err(err).Str("db", dbPath).Msg("open span archive")
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	spans, err := collect(store, traceID)
	if err != nil {
		logger.Error().Err(err).Str("db", dbPath).Msg("read span archive")
		os.Exit(1)
	}

	switch format {
	case "json":
		if err := printJSON(os.Stdout, spans); err != nil {
			logger.Error().Err(err).Msg("encode spans")
			os.Exit(1)
		}
	case "tree":
		printTree(os.Stdout, spans)
	}
}

func collect(store *spanstore.Store, traceID string) ([]tracing.Span, error) {
	ctx := context.Background()
	if traceID != "" {
		return store.GetTrace(ctx, traceID)
	}
	var spans []tracing.Span
	err := store.Scan(ctx, func(span tracing.Span) error {
		spans = append(spans, span)
		return nil
	})
	return spans, err
}

func printJSON(w io.Writer, spans []tracing.Span) error {
	enc := json.NewEncoder(w)
	for _, span := range spans {
		if err := enc.Encode(span); err != nil {
			return fmt.Errorf("encode span %s: %w", span.SpanID, err)
		}
	}
	return nil
}

// printTree prints root spans with their children indented beneath them.
// Orphans whose parent was not archived are printed at the root level;
// the visited set keeps corrupted archives with cyclic parent chains
// from looping.
func printTree(w io.Writer, spans []tracing.Span) {
	children := make(map[string][]tracing.Span)
	var roots []tracing.Span
	for _, span := range spans {
		if span.ParentSpanID == "" {
			roots = append(roots, span)
			continue
		}
		children[span.ParentSpanID] = append(children[span.ParentSpanID], span)
	}

	visited := make(map[string]bool)
	for _, root := range roots {
		printNode(w, root, children, 0, visited)
	}
	for _, span := range spans {
		if !visited[span.SpanID] {
			printNode(w, span, children, 0, visited)
		}
	}
}

func printNode(w io.Writer, span tracing.Span, children map[string][]tracing.Span, depth int, visited map[string]bool) {
	if visited[span.SpanID] {
		return
	}
	visited[span.SpanID] = true

	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
	duration := "active"
	if d, ok := span.Duration(); ok {
		duration = d.String()
	}
	fmt.Fprintf(w, "[%s] %s (%s, %s)\n", shortID(span.SpanID), span.OperationName, span.Status, duration)
	for _, child := range children[span.SpanID] {
		printNode(w, child, children, depth+1, visited)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
