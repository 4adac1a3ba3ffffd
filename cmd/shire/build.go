// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/justinjdev/shire/internal/errors"
	"github.com/justinjdev/shire/internal/output"
	"github.com/justinjdev/shire/pkg/config"
	"github.com/justinjdev/shire/pkg/pipeline"
	"github.com/justinjdev/shire/pkg/store"
)

// runBuild executes the 'build' CLI command, running the indexing pipeline
// against a repository and writing the result to its embedded database
// (spec.md §6).
func runBuild(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	root := fs.String("root", "", "Repository root to index (default: current directory)")
	force := fs.Bool("force", false, "Clear incremental state and re-derive it from the current tree")
	dbPath := fs.String("db", "", "Override the database path (default: shire.toml's db_path, or .shire/index.db)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shire build [options]

Indexes a repository's package graph and symbol tables, writing the result
to its embedded database. Runs incrementally unless --force is given.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  shire build
  shire build --root ./monorepo --force
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	repoRoot := *root
	if repoRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError(
				"cannot determine current directory",
				err.Error(),
				"pass --root explicitly",
				err,
			), globals.JSON)
		}
		repoRoot = cwd
	}
	if _, err := os.Stat(repoRoot); err != nil {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("repository root %q does not exist", repoRoot),
			err.Error(),
			"check the --root path",
		), globals.JSON)
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"cannot load shire.toml",
			err.Error(),
			"fix the syntax error it reports, or remove shire.toml to use defaults",
			err,
		), globals.JSON)
	}

	resolvedDB, err := cfg.ResolveDBPath(repoRoot)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot resolve db_path", err.Error(), "check shire.toml's db_path", err), globals.JSON)
	}
	if *dbPath != "" {
		resolvedDB = *dbPath
	}

	logLevel := slog.LevelInfo
	if globals.Verbose > 0 {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	if globals.Quiet {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	st, err := store.Open(resolvedDB)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			fmt.Sprintf("cannot open database %q", resolvedDB),
			err.Error(),
			"check the path is writable and not locked by another shire process",
			err,
		), globals.JSON)
	}
	defer st.Close()

	o := pipeline.New(pipeline.Config{
		RepoRoot: repoRoot,
		Force:    *force,
		Settings: cfg,
	}, st, logger)

	bar := NewSpinner(NewProgressConfig(globals), "Indexing "+repoRoot)
	summary, err := o.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("build failed", err.Error(), "see the error above for the failing phase", err), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(summary); err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode summary", err.Error(), "", err), globals.JSON)
		}
		return
	}
	printBuildSummary(summary, globals)
}
