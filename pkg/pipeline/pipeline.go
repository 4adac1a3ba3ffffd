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

// Package pipeline is the build orchestrator: it sequences the nine phases
// (spec.md §4.1-§4.14) that turn a repository tree into an indexed
// dependency graph, one explicit transaction per phase.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/justinjdev/shire/pkg/config"
	"github.com/justinjdev/shire/pkg/store"
	"github.com/justinjdev/shire/pkg/telemetry"
)

// Config is the orchestrator's run configuration, assembled by the CLI from
// a loaded shire.toml plus command-line overrides (spec.md §6).
type Config struct {
	RepoRoot       string
	Force          bool
	ParseWorkers   int
	ExtractWorkers int
	Settings       *config.Config
}

// ParseFailure is one non-fatal manifest parse error (spec.md §7), recorded
// and printed en masse after the build rather than aborting it.
type ParseFailure struct {
	Path    string
	Message string
}

// BuildSummary is everything the orchestrator reports after a run (spec.md
// §4.1, §9): counts for the primary-stream summary line, failures for the
// error-stream block, and phase timings for the diagnostic block.
type BuildSummary struct {
	RunID string

	ManifestsNew       int
	ManifestsChanged   int
	ManifestsRemoved   int
	ManifestsUnchanged int

	ParseFailures []ParseFailure

	SymbolsReextractedManifest int // Phase 7: packages re-extracted because their manifest changed
	SymbolsReextractedSource   int // Phase 8: packages re-extracted because their source changed, tracked distinctly (spec.md §4.11)
	SourceTouched              int // Phase 8: packages whose hash matched and only hashed_at advanced

	FileIndexRebuilt bool
	FileCount        int

	PackageCount int
	SymbolCount  int

	PhaseDurations map[string]time.Duration
	TotalDuration  time.Duration
}

// Orchestrator runs one build against an open store.
type Orchestrator struct {
	cfg    Config
	store  *store.Store
	logger *slog.Logger
}

// New constructs an Orchestrator. A nil logger falls back to slog.Default,
// matching the teacher's own NewLocalPipeline convention.
func New(cfg Config, st *store.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = runtime.NumCPU()
	}
	if cfg.ExtractWorkers <= 0 {
		cfg.ExtractWorkers = runtime.NumCPU()
	}
	return &Orchestrator{cfg: cfg, store: st, logger: logger}
}

// generateRunID derives a deterministic run id for log correlation, the
// same sha256-truncation shape as the ingestion pipeline this orchestrator
// is descended from.
func generateRunID(repoRoot string, startTime time.Time) string {
	rounded := startTime.Truncate(time.Second)
	base := fmt.Sprintf("run-%s-%d", repoRoot, rounded.Unix())
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:16])
}

// gitCommit returns the repo's current commit, or "" if the tree isn't a
// git checkout or git isn't available — this is diagnostic metadata, never
// a build precondition.
func gitCommit(repoRoot string) string {
	cmd := exec.Command("git", "-C", repoRoot, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Run executes all nine phases in sequence and returns the build summary
// (spec.md §4.1). Each phase's transaction commits before the next phase
// starts; a phase failure rolls back only that phase's transaction and
// aborts the run, leaving every previously committed phase intact.
func (o *Orchestrator) Run(ctx context.Context) (*BuildSummary, error) {
	start := time.Now()
	runID := generateRunID(o.cfg.RepoRoot, start)
	o.logger.Info("shire.build.start", "run_id", runID, "root", o.cfg.RepoRoot, "force", o.cfg.Force)

	summary := &BuildSummary{RunID: runID, PhaseDurations: make(map[string]time.Duration)}

	timed := func(name string, fn func() error) error {
		phaseStart := time.Now()
		err := fn()
		d := time.Since(phaseStart)
		summary.PhaseDurations[name] = d
		telemetry.RecordPhaseDuration(name, d)
		o.logger.Info("shire.build.phase.complete", "run_id", runID, "phase", name,
			"duration_ms", d.Milliseconds(), "err", errString(err))
		return err
	}

	if o.cfg.Force {
		if err := timed("phase_force_clear", func() error { return o.forceClear(ctx) }); err != nil {
			telemetry.RecordBuildFailure()
			return summary, fmt.Errorf("force clear: %w", err)
		}
	}

	state := &buildState{}

	fail := func(phase string, err error) (*BuildSummary, error) {
		telemetry.RecordBuildFailure()
		return summary, fmt.Errorf("%s: %w", phase, err)
	}

	if err := timed("phase1_walk", func() error {
		var err error
		state.walk, err = o.phase1Walk()
		return err
	}); err != nil {
		return fail("phase 1 (walk)", err)
	}

	if err := timed("phase2_manifest_diff", func() error {
		var err error
		state.diff, err = o.phase2Diff(ctx, state.walk)
		return err
	}); err != nil {
		return fail("phase 2 (manifest diff)", err)
	}
	stats := state.diff.GetStats()
	summary.ManifestsNew = stats.NewCount
	summary.ManifestsChanged = stats.ChangedCount
	summary.ManifestsRemoved = stats.RemovedCount
	summary.ManifestsUnchanged = stats.UnchangedCount
	telemetry.RecordManifestDiff(stats.NewCount, stats.ChangedCount, stats.RemovedCount)

	if err := timed("phase3_parse", func() error {
		var err error
		state.parse, err = o.phase3Parse(ctx, state.walk, state.diff)
		return err
	}); err != nil {
		return fail("phase 3 (parse)", err)
	}
	summary.ParseFailures = state.parse.failures
	for range state.parse.failures {
		telemetry.RecordParseFailure()
	}

	if err := timed("phase4_remove_deleted", func() error {
		return o.phase4RemoveDeleted(ctx, state.diff)
	}); err != nil {
		return fail("phase 4 (remove deleted)", err)
	}

	allPackages, err := o.loadAllPackages(ctx)
	if err != nil {
		return fail("load package set", err)
	}
	state.allPackages = allPackages

	if err := timed("phase5_recompute_internal", func() error {
		return o.phase5RecomputeInternal(ctx)
	}); err != nil {
		return fail("phase 5 (recompute is_internal)", err)
	}

	if err := timed("phase6_store_manifest_hashes", func() error {
		return o.phase6StoreManifestHashes(ctx, state.walk, state.diff)
	}); err != nil {
		return fail("phase 6 (store manifest hashes)", err)
	}

	if err := timed("phase_extract_symbols", func() error {
		n, err := o.phase7ExtractSymbols(ctx, state)
		summary.SymbolsReextractedManifest = n
		return err
	}); err != nil {
		return fail("phase 7 (extract symbols)", err)
	}
	for i := 0; i < summary.SymbolsReextractedManifest; i++ {
		telemetry.RecordManifestReextract()
	}

	if err := timed("phase_source_incremental", func() error {
		reext, touched, err := o.phase8SourceIncremental(ctx, state)
		summary.SymbolsReextractedSource = reext
		summary.SourceTouched = touched
		return err
	}); err != nil {
		return fail("phase 8 (source incremental)", err)
	}
	for i := 0; i < summary.SymbolsReextractedSource; i++ {
		telemetry.RecordSourceReextract()
	}

	if err := timed("phase_index_files", func() error {
		rebuilt, count, err := o.phase9FileIndex(ctx, state)
		summary.FileIndexRebuilt = rebuilt
		summary.FileCount = count
		return err
	}); err != nil {
		return fail("phase 9 (file index)", err)
	}

	summary.TotalDuration = time.Since(start)

	if err := timed("phase_write_metadata", func() error {
		return o.writeSummaryMetadata(ctx, summary)
	}); err != nil {
		return fail("write summary metadata", err)
	}

	telemetry.RecordBuildComplete(summary.PackageCount, summary.SymbolCount, summary.FileCount, summary.TotalDuration)

	o.logger.Info("shire.build.complete", "run_id", runID,
		"packages", summary.PackageCount, "symbols", summary.SymbolCount, "files", summary.FileCount,
		"parse_failures", len(summary.ParseFailures), "total_duration_ms", summary.TotalDuration.Milliseconds())

	return summary, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// forceClear implements spec.md §4.1's force-flag precondition in its own
// transaction, ahead of phase 1.
func (o *Orchestrator) forceClear(ctx context.Context) error {
	tx, err := o.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := tx.ClearForForce(ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// writeSummaryMetadata persists the post-build metadata row (spec.md §4.15
// "Summary write") plus any configured package description overrides
// (spec.md §6 "[[packages]] entries").
func (o *Orchestrator) writeSummaryMetadata(ctx context.Context, summary *BuildSummary) error {
	packageCount, err := o.store.CountPackages(ctx)
	if err != nil {
		return err
	}
	symbolCount, err := o.store.CountSymbols(ctx)
	if err != nil {
		return err
	}
	summary.PackageCount = packageCount
	summary.SymbolCount = symbolCount

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := map[string]string{
		store.MetaKeyIndexedAt:       time.Now().UTC().Format(time.RFC3339),
		store.MetaKeyGitCommit:       gitCommit(o.cfg.RepoRoot),
		store.MetaKeyPackageCount:    fmt.Sprintf("%d", packageCount),
		store.MetaKeySymbolCount:     fmt.Sprintf("%d", symbolCount),
		store.MetaKeyFileCount:       fmt.Sprintf("%d", summary.FileCount),
		store.MetaKeyTotalDurationMs: fmt.Sprintf("%d", summary.TotalDuration.Milliseconds()),
		store.MetaKeyLastRunID:       summary.RunID,
	}
	for key, value := range fields {
		if err := tx.SetMetadata(ctx, key, value); err != nil {
			return err
		}
	}

	for _, override := range o.cfg.Settings.Packages {
		applied, err := tx.ApplyPackageOverride(ctx, override.Name, override.Description)
		if err != nil {
			return err
		}
		if !applied {
			o.logger.Warn("shire.build.package_override.unknown", "name", override.Name)
		}
	}

	return tx.Commit()
}
