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

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/justinjdev/shire/pkg/differ"
	"github.com/justinjdev/shire/pkg/discovery"
	"github.com/justinjdev/shire/pkg/manifest"
	"github.com/justinjdev/shire/pkg/store"
)

// phase3Parse dispatches every new/changed manifest to its registered
// parser, runs the custom-discovery engine, merges the two package sources,
// and upserts the result (spec.md §4.6, §4.13).
func (o *Orchestrator) phase3Parse(ctx context.Context, ws *walkState, diff differ.HashDiff) (*parseState, error) {
	state := &parseState{
		manifestReextract: make(map[string]struct{}),
		finalByPath:       make(map[string]store.Package),
	}

	var manifestPkgs []manifest.Package
	edgesByPackage := make(map[string][]manifest.DependencyEdge)
	pathByName := make(map[string]string)

	// Per-manifest parse errors accumulate into a single multierror rather
	// than aborting the batch, the same shape as the teacher pack's
	// per-file hclfmt loop: every manifest gets a chance to parse even
	// after an earlier one fails.
	var parseErrs *multierror.Error
	for _, path := range diff.ToReparse() {
		m, ok := ws.manifestByPath[path]
		if !ok {
			continue
		}
		if manifest.IsWorkspaceOnly(m.Base) {
			continue
		}
		result, err := manifest.Parse(m.Base, m.Content, m.Dir, ws.ws)
		if err != nil {
			state.failures = append(state.failures, ParseFailure{Path: path, Message: err.Error()})
			parseErrs = multierror.Append(parseErrs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if result == nil {
			continue
		}
		manifestPkgs = append(manifestPkgs, result.Package)
		edgesByPackage[result.Package.Name] = result.Edges
		pathByName[result.Package.Name] = result.Package.Path
		state.manifestReextract[result.Package.Name] = struct{}{}
	}
	if err := parseErrs.ErrorOrNil(); err != nil {
		o.logger.Warn("shire.build.parse.failures", "count", len(state.failures), "err", err)
	}

	globalExclude := make(map[string]struct{}, len(o.cfg.Settings.ExcludeDirSet()))
	for _, d := range o.cfg.Settings.ExcludeDirSet() {
		globalExclude[d] = struct{}{}
	}
	virtualPkgs, err := discovery.Discover(o.cfg.RepoRoot, globalExclude, o.cfg.Settings.DiscoveryRules())
	if err != nil {
		return nil, fmt.Errorf("custom discovery: %w", err)
	}

	merged := discovery.MergeVirtual(manifestPkgs, virtualPkgs)

	// A virtual package can also collide with a package stored from an
	// earlier build at an unchanged manifest path; that stale row carries a
	// different name (the manifest's, not name_prefix+path) and must be
	// superseded explicitly since INSERT-OR-REPLACE keys on name, not path.
	stored, err := o.store.PackagesByPath(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored packages: %w", err)
	}
	storedByPath := make(map[string]store.Package, len(stored))
	for _, p := range stored {
		storedByPath[p.Path] = p
	}
	var supersededNames []string
	for _, v := range virtualPkgs {
		if stale, ok := storedByPath[v.Path]; ok && stale.Name != v.Name {
			supersededNames = append(supersededNames, stale.Name)
		}
	}

	storePkgs := make([]store.Package, 0, len(merged))
	upsertNames := make([]string, 0, len(merged))
	for _, p := range merged {
		metadataJSON, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata for %s: %w", p.Name, err)
		}
		sp := store.Package{
			Name: p.Name, Path: p.Path, Kind: p.Kind,
			Version: p.Version, Description: p.Description, Metadata: string(metadataJSON),
		}
		storePkgs = append(storePkgs, sp)
		upsertNames = append(upsertNames, p.Name)
		state.finalByPath[p.Path] = sp
	}

	var edges []store.DependencyEdge
	for name, es := range edgesByPackage {
		// A freshly parsed manifest package that a colliding virtual rule
		// overrode at the same path no longer exists under this name; it
		// carries no edges (spec.md §4.13).
		if winner, ok := state.finalByPath[pathByName[name]]; ok && winner.Name != name {
			continue
		}
		for _, e := range es {
			edges = append(edges, store.DependencyEdge{Package: name, Dependency: e.Dependency, Kind: e.Kind, VersionReq: e.VersionReq})
		}
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if len(supersededNames) > 0 {
		if err := tx.DeleteDependencyEdgesForPackages(ctx, supersededNames); err != nil {
			return nil, err
		}
		if err := tx.DeleteSymbolsForPackages(ctx, supersededNames); err != nil {
			return nil, err
		}
		if err := tx.DeleteSourceHashes(ctx, supersededNames); err != nil {
			return nil, err
		}
		if err := tx.DeletePackagesByName(ctx, supersededNames); err != nil {
			return nil, err
		}
	}

	if err := tx.DeleteDependencyEdgesForPackages(ctx, upsertNames); err != nil {
		return nil, err
	}
	if err := tx.UpsertPackages(ctx, storePkgs); err != nil {
		return nil, err
	}
	if err := tx.InsertDependencyEdges(ctx, edges); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	state.finalPackages = storePkgs
	// manifestReextract (Phase 7's input set, spec.md §4.10) must only
	// include names that survived the discovery merge under their own name.
	for name := range state.manifestReextract {
		winner, ok := state.finalByPath[pathByName[name]]
		if !ok || winner.Name != name {
			delete(state.manifestReextract, name)
		}
	}

	return state, nil
}

// phase4RemoveDeleted removes every row owned by a manifest no longer
// present on disk (spec.md §4.7), in the required order: source hashes
// (against the pre-deletion package set), symbols, dependency edges,
// packages, then the manifest-hash row itself.
func (o *Orchestrator) phase4RemoveDeleted(ctx context.Context, diff differ.HashDiff) error {
	if len(diff.Removed) == 0 {
		return nil
	}

	dirs := make([]string, 0, len(diff.Removed))
	seen := make(map[string]struct{})
	for _, path := range diff.Removed {
		dir := filepath.ToSlash(filepath.Dir(path))
		if dir == "." {
			dir = ""
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	owned, err := tx.PackagesAtPaths(ctx, dirs)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(owned))
	for _, p := range owned {
		names = append(names, p.Name)
	}

	if err := tx.DeleteSourceHashes(ctx, names); err != nil {
		return err
	}
	if err := tx.DeleteSymbolsForPackages(ctx, names); err != nil {
		return err
	}
	if err := tx.DeleteDependencyEdgesForPackages(ctx, names); err != nil {
		return err
	}
	if err := tx.DeletePackagesByName(ctx, names); err != nil {
		return err
	}
	if err := tx.DeleteManifestHashes(ctx, diff.Removed); err != nil {
		return err
	}

	return tx.Commit()
}

// loadAllPackages re-reads the full packages table after Phase 3/4 have run,
// giving Phase 8 and Phase 9 the complete current package set rather than
// just the subset Phase 3 touched this build.
func (o *Orchestrator) loadAllPackages(ctx context.Context) ([]store.Package, error) {
	return o.store.AllPackages(ctx)
}

// phase5RecomputeInternal restores the is_internal invariant across every
// dependency edge (spec.md §4.8). It runs every build: cheap relative to
// re-parsing, and correct unconditionally regardless of whether the package
// set actually changed.
func (o *Orchestrator) phase5RecomputeInternal(ctx context.Context) error {
	tx, err := o.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := tx.RecomputeInternalEdges(ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// phase6StoreManifestHashes batch-upserts the hash of every new/changed
// manifest (spec.md §4.9).
func (o *Orchestrator) phase6StoreManifestHashes(ctx context.Context, ws *walkState, diff differ.HashDiff) error {
	toStore := diff.ToReparse()
	if len(toStore) == 0 {
		return nil
	}
	hashes := make(map[string]string, len(toStore))
	for _, path := range toStore {
		hashes[path] = ws.manifestHashes[path]
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := tx.UpsertManifestHashes(ctx, hashes); err != nil {
		return err
	}
	return tx.Commit()
}
