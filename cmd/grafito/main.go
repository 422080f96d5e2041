// Package main is the entry point for the grafito server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grafito-db/grafito/internal/config"
	"github.com/grafito-db/grafito/internal/exec"
	"github.com/grafito-db/grafito/internal/graph"
	"github.com/grafito-db/grafito/internal/parser"
	"github.com/grafito-db/grafito/internal/procs"
	"github.com/grafito-db/grafito/internal/registry"
	"github.com/grafito-db/grafito/internal/storage"
	"github.com/grafito-db/grafito/internal/textindex"
	"github.com/grafito-db/grafito/internal/transport"
	"github.com/grafito-db/grafito/internal/txn"
	"github.com/grafito-db/grafito/internal/values"
	"github.com/grafito-db/grafito/internal/vectorindex"
	"github.com/grafito-db/grafito/pkg/embedder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.SetupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, storage.Options{
		Path:    cfg.DbPath,
		Journal: storage.JournalMode(strings.ToUpper(cfg.JournalMode)),
	})
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	embedders := registry.New[embedder.Embedder]()
	if emb, err := embedder.NewEmbedderFromMainConfig(cfg); err != nil {
		slog.Warn("no default embedder configured", "error", err)
	} else {
		embedders.Register("default", emb)
		if codeEmb, err := embedder.NewCodeEmbedderFromMainConfig(cfg); err != nil {
			slog.Warn("failed to build code embedder", "error", err)
		} else if codeEmb != nil {
			embedders.Register("code", codeEmb)
		}
	}

	textIdx, err := textindex.Open(ctx, store.DB())
	if err != nil {
		log.Fatalf("failed to open text index: %v", err)
	}

	vectors, err := vectorindex.NewManager(ctx, store.DB(), embedders)
	if err != nil {
		log.Fatalf("failed to open vector index manager: %v", err)
	}

	constraints := graph.NewConstraintRegistry()
	g := graph.New(constraints)
	g.Text = textIdx

	procsDeps := procs.Deps{
		Graph:       g,
		Constraints: constraints,
		DB:          store.DB(),
		Vectors:     vectors,
		Text:        textIdx,
		Embedders:   embedders,
		CacheDir:    cfg.GetAPOCCacheDir(),
	}
	procsReg := procs.New(procsDeps)

	session := txn.NewSession(store.DB())
	maxHops := cfg.GetCypherMaxHops()

	var httpTransport *transport.HTTPTransport
	if cfg.HTTP || cfg.RestAPIServe {
		addr := cfg.HTTPAddr
		if addr == "" {
			addr = ":8080"
		}
		httpTransport = transport.New(addr, session, g, constraints, procsReg, maxHops)
	}

	errCh := make(chan error, 1)
	if httpTransport != nil {
		go func() {
			if err := httpTransport.Start(); err != nil {
				errCh <- fmt.Errorf("http transport: %w", err)
			}
		}()
	} else {
		go runREPL(ctx, session, g, constraints, procsReg, maxHops, errCh)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	if httpTransport != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpTransport.Shutdown(shutdownCtx); err != nil {
			slog.Error("http transport shutdown", "error", err)
		}
	}
}

// runREPL reads one Cypher statement per line from stdin and prints its
// result to stdout, the "stdio mode" default when no transport flag is
// set (mirroring cfg.SetupLogging's stdio-mode detection, which keeps
// console logs off stdout in this mode so they don't interleave with
// query output).
func runREPL(ctx context.Context, session *txn.Session, g *graph.Graph, constraints *graph.ConstraintRegistry, procsReg *procs.Registry, maxHops int, errCh chan<- error) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return
		}
		stmt, err := parser.Parse(line)
		if err != nil {
			fmt.Fprintf(os.Stdout, "error: %v\n", err)
			continue
		}
		var result *exec.Result
		runErr := session.Scope(ctx, func(ctx context.Context, q graph.Querier) error {
			ex := &exec.Executor{
				Graph:       g,
				Constraints: constraints,
				Querier:     q,
				Params:      map[string]values.Value{},
				MaxHops:     maxHops,
				Procs:       procsReg,
			}
			res, err := ex.Execute(ctx, stmt)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
		if runErr != nil {
			fmt.Fprintf(os.Stdout, "error: %v\n", runErr)
			continue
		}
		printResult(result)
	}
	if err := scanner.Err(); err != nil {
		errCh <- err
	}
}

func printResult(result *exec.Result) {
	if result == nil || len(result.Columns) == 0 {
		fmt.Fprintln(os.Stdout, "(no rows)")
		return
	}
	fmt.Fprintln(os.Stdout, strings.Join(result.Columns, " | "))
	for _, row := range result.Rows {
		parts := make([]string, len(result.Columns))
		for i, c := range result.Columns {
			parts[i] = row[c].String()
		}
		fmt.Fprintln(os.Stdout, strings.Join(parts, " | "))
	}
	fmt.Fprintf(os.Stdout, "(%d rows)\n", len(result.Rows))
}
