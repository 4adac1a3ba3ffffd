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
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/justinjdev/shire/internal/errors"
	"github.com/justinjdev/shire/pkg/config"
	"github.com/justinjdev/shire/pkg/pipeline"
	"github.com/justinjdev/shire/pkg/store"
)

// watchState is the PID-file payload a running watch daemon publishes so
// "shire rebuild" and "shire watch --stop" can find and signal it. The
// instance ID distinguishes one daemon's lifetime from the next in logs,
// the same role uuid.New() plays for the teacher's server InstanceID.
type watchState struct {
	PID        int    `json:"pid"`
	InstanceID string `json:"instance_id"`
	Root       string `json:"root"`
	StartedAt  string `json:"started_at"`
}

func watchStateFile(repoRoot string) string {
	return filepath.Join(repoRoot, ".shire", "watch.pid")
}

// runWatch executes the 'watch' CLI command: it starts a long-running
// daemon that triggers an incremental build on every filesystem change
// under root, or (with --stop) signals a running one to exit (spec.md §6;
// the watcher's exact triggering semantics are an external collaborator,
// but the daemon lifecycle and CLI surface are not).
func runWatch(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	root := fs.String("root", "", "Repository root to watch (default: current directory)")
	stop := fs.Bool("stop", false, "Stop a running watch daemon for this root")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shire watch [options]

Starts a daemon that triggers an incremental "shire build" whenever a file
under root changes. Use --stop to terminate a running daemon.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	repoRoot := *root
	if repoRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError("cannot determine current directory", err.Error(), "pass --root explicitly", err), globals.JSON)
		}
		repoRoot = cwd
	}

	if *stop {
		stopWatchDaemon(repoRoot, globals)
		return
	}

	if st, ok := readWatchState(repoRoot); ok && processAlive(st.PID) {
		errors.FatalError(errors.NewInputError(
			fmt.Sprintf("a watch daemon is already running for %q (pid %d)", repoRoot, st.PID),
			"",
			`run "shire watch --stop" first`,
		), globals.JSON)
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load shire.toml", err.Error(), "fix the syntax error it reports", err), globals.JSON)
	}
	dbPath, err := cfg.ResolveDBPath(repoRoot)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot resolve db_path", err.Error(), "check shire.toml's db_path", err), globals.JSON)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	instanceID := uuid.New().String()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot create filesystem watcher", err.Error(), "", err), globals.JSON)
	}
	defer watcher.Close()

	exclude := make(map[string]struct{}, len(cfg.Discovery.Exclude))
	for _, d := range cfg.Discovery.Exclude {
		exclude[d] = struct{}{}
	}
	if err := addDirsRecursive(watcher, repoRoot, exclude); err != nil {
		errors.FatalError(errors.NewInternalError("cannot watch repository tree", err.Error(), "", err), globals.JSON)
	}

	if err := writeWatchState(repoRoot, watchState{
		PID: os.Getpid(), InstanceID: instanceID, Root: repoRoot, StartedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		errors.FatalError(errors.NewInternalError("cannot write watch state", err.Error(), "", err), globals.JSON)
	}
	defer os.Remove(watchStateFile(repoRoot))

	logger.Info("shire.watch.start", "instance_id", instanceID, "root", repoRoot, "pid", os.Getpid())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)

	rebuild := func(reason string) {
		logger.Info("shire.watch.rebuild.start", "instance_id", instanceID, "reason", reason)
		st, err := store.Open(dbPath)
		if err != nil {
			logger.Warn("shire.watch.rebuild.error", "instance_id", instanceID, "err", err)
			return
		}
		o := pipeline.New(pipeline.Config{RepoRoot: repoRoot, Settings: cfg}, st, logger)
		summary, err := o.Run(ctx)
		st.Close()
		if err != nil {
			logger.Warn("shire.watch.rebuild.error", "instance_id", instanceID, "err", err)
			return
		}
		logger.Info("shire.watch.rebuild.complete", "instance_id", instanceID,
			"packages", summary.PackageCount, "symbols", summary.SymbolCount)
	}

	debounce := 300 * time.Millisecond
	var pending bool
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shire.watch.stop", "instance_id", instanceID)
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				rebuild("signal")
			default:
				logger.Info("shire.watch.signal", "instance_id", instanceID, "signal", sig.String())
				cancel()
			}
		case event, ok := <-watcher.Events:
			if !ok {
				cancel()
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirsRecursive(watcher, event.Name, exclude)
				}
			}
			pending = true
			timer.Reset(debounce)
		case <-timer.C:
			if pending {
				pending = false
				rebuild("filesystem change")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				cancel()
				continue
			}
			logger.Warn("shire.watch.error", "instance_id", instanceID, "err", err)
		}
	}
}

// addDirsRecursive registers root and every non-excluded subdirectory with
// the watcher; fsnotify.Watcher.Add is not recursive on its own.
func addDirsRecursive(watcher *fsnotify.Watcher, root string, exclude map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := exclude[d.Name()]; skip && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func writeWatchState(repoRoot string, st watchState) error {
	path := watchStateFile(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readWatchState(repoRoot string) (watchState, bool) {
	data, err := os.ReadFile(watchStateFile(repoRoot))
	if err != nil {
		return watchState{}, false
	}
	var st watchState
	if err := json.Unmarshal(data, &st); err != nil {
		return watchState{}, false
	}
	return st, true
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func stopWatchDaemon(repoRoot string, globals GlobalFlags) {
	st, ok := readWatchState(repoRoot)
	if !ok {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("no watch daemon is recorded for %q", repoRoot),
			"",
			`"shire watch --stop" only works after "shire watch" has started a daemon`,
		), globals.JSON)
	}
	proc, err := os.FindProcess(st.PID)
	if err == nil {
		_ = proc.Signal(syscall.SIGTERM)
	}
	os.Remove(watchStateFile(repoRoot))
	fmt.Fprintf(os.Stderr, "stopped watch daemon %s (pid %s)\n", st.InstanceID, strconv.Itoa(st.PID))
}
