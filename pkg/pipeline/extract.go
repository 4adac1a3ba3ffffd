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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/justinjdev/shire/pkg/differ"
	"github.com/justinjdev/shire/pkg/hashing"
	"github.com/justinjdev/shire/pkg/store"
	"github.com/justinjdev/shire/pkg/symbols"
	"github.com/justinjdev/shire/pkg/walker"
)

// parallelFor runs fn(0..n) across up to workers goroutines. Small inputs
// run inline: spinning up a worker pool costs more than a handful of file
// reads, the same threshold the ingestion pipeline this is descended from
// uses for its own parse step.
func parallelFor(n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	if n < 10 || workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// extractResult is one package's worker-pool output: symbol extraction is
// CPU-bound and runs off the main goroutine, but every store write happens
// afterward, sequentially, inside the phase's single transaction.
type extractResult struct {
	pkg     store.Package
	symbols []store.Symbol
	hash    string
	err     error
}

// classifyResult is one package's Phase 8 verdict, plus symbols already
// extracted if the verdict called for it.
type classifyResult struct {
	pkg     store.Package
	verdict differ.SourceVerdict
	symbols []store.Symbol
	err     error
}

// extractSymbolsForFiles reads and parses every source file of a package.
// A file that fails to read or parse is skipped (spec.md §7: extraction
// errors are non-fatal and do not abort the build).
func (o *Orchestrator) extractSymbolsForFiles(pkg store.Package, files []walker.SourceFile) []store.Symbol {
	var rows []store.Symbol
	for _, f := range files {
		abs := filepath.Join(o.cfg.RepoRoot, f.Path)
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Path)), ".")
		records, err := symbols.Extract(content, f.Path, ext)
		if err != nil {
			continue
		}
		for _, r := range records {
			paramsJSON, _ := json.Marshal(r.Params)
			rows = append(rows, store.Symbol{
				Package:      pkg.Name,
				Name:         r.Name,
				Kind:         r.Kind,
				Signature:    r.Signature,
				FilePath:     r.FilePath,
				Line:         r.Line,
				Visibility:   r.Visibility,
				ParentSymbol: r.Parent,
				ReturnType:   r.ReturnType,
				Parameters:   string(paramsJSON),
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FilePath != rows[j].FilePath {
			return rows[i].FilePath < rows[j].FilePath
		}
		return rows[i].Line < rows[j].Line
	})
	return rows
}

// packageSourceFiles lists a package's current source files and the
// rel->abs path map AggregateSourceHash and ClassifySource both expect.
func (o *Orchestrator) packageSourceFiles(ws *walkState, pkg store.Package) ([]walker.SourceFile, map[string]string, error) {
	files, err := ws.w.SourceFiles(pkg.Path, ws.sourceExtensions, ws.extraExclude)
	if err != nil {
		return nil, nil, err
	}
	relToAbs := make(map[string]string, len(files))
	for _, f := range files {
		relToAbs[f.Path] = filepath.Join(o.cfg.RepoRoot, f.Path)
	}
	return files, relToAbs, nil
}

func (o *Orchestrator) extractOnePackage(ws *walkState, pkg store.Package) extractResult {
	files, relToAbs, err := o.packageSourceFiles(ws, pkg)
	if err != nil {
		return extractResult{pkg: pkg, err: err}
	}
	hash, err := hashing.AggregateSourceHash(relToAbs)
	if err != nil {
		return extractResult{pkg: pkg, err: err}
	}
	return extractResult{pkg: pkg, symbols: o.extractSymbolsForFiles(pkg, files), hash: hash}
}

// phase7ExtractSymbols re-extracts symbols for every package whose manifest
// was new or changed this build (spec.md §4.10). Extraction runs across a
// worker pool; all writes land in one transaction afterward.
func (o *Orchestrator) phase7ExtractSymbols(ctx context.Context, state *buildState) (int, error) {
	names := make([]string, 0, len(state.parse.manifestReextract))
	for name := range state.parse.manifestReextract {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return 0, nil
	}

	nameToPkg := make(map[string]store.Package, len(state.parse.finalPackages))
	for _, p := range state.parse.finalPackages {
		nameToPkg[p.Name] = p
	}
	pkgs := make([]store.Package, 0, len(names))
	for _, name := range names {
		pkgs = append(pkgs, nameToPkg[name])
	}

	results := make([]extractResult, len(pkgs))
	parallelFor(len(pkgs), o.cfg.ExtractWorkers, func(i int) {
		results[i] = o.extractOnePackage(state.walk, pkgs[i])
	})

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := tx.DeleteSymbolsForPackages(ctx, names); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	var allSymbols []store.Symbol
	var hashRows []store.SourceHash
	for _, r := range results {
		if r.err != nil {
			continue
		}
		allSymbols = append(allSymbols, r.symbols...)
		hashRows = append(hashRows, store.SourceHash{Package: r.pkg.Name, Hash: r.hash, HashedAt: now})
	}
	if err := tx.InsertSymbols(ctx, allSymbols); err != nil {
		return 0, err
	}
	if err := tx.UpsertSourceHashes(ctx, hashRows); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(names), nil
}

func (o *Orchestrator) classifyOnePackage(ws *walkState, pkg store.Package, stored map[string]store.SourceHash) classifyResult {
	files, relToAbs, err := o.packageSourceFiles(ws, pkg)
	if err != nil {
		return classifyResult{pkg: pkg, err: err}
	}
	absPaths := make([]string, 0, len(relToAbs))
	for _, abs := range relToAbs {
		absPaths = append(absPaths, abs)
	}

	sh, hasRow := stored[pkg.Name]
	hashedAt := time.Unix(0, 0)
	if hasRow {
		hashedAt = time.Unix(sh.HashedAt, 0)
	}

	verdict, err := differ.ClassifySource(absPaths, relToAbs, sh.Hash, hashedAt, hasRow)
	if err != nil {
		return classifyResult{pkg: pkg, err: err}
	}

	result := classifyResult{pkg: pkg, verdict: verdict}
	if verdict.Action == differ.ActionReextract {
		result.symbols = o.extractSymbolsForFiles(pkg, files)
	}
	return result
}

// phase8SourceIncremental classifies every package Phase 7 did not already
// claim this build (spec.md §4.11): packages whose manifest is unchanged,
// plus every custom-discovery virtual package, since the latter never has a
// manifest-hash row to surface in the Phase 2 diff at all.
func (o *Orchestrator) phase8SourceIncremental(ctx context.Context, state *buildState) (reextracted, touched int, err error) {
	var candidates []store.Package
	for _, p := range state.allPackages {
		if _, claimed := state.parse.manifestReextract[p.Name]; claimed {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	stored, err := o.store.SourceHashes(ctx)
	if err != nil {
		return 0, 0, err
	}

	results := make([]classifyResult, len(candidates))
	parallelFor(len(candidates), o.cfg.ExtractWorkers, func(i int) {
		results[i] = o.classifyOnePackage(state.walk, candidates[i], stored)
	})

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	var reextractNames []string
	var allSymbols []store.Symbol
	var hashRows []store.SourceHash
	for _, r := range results {
		if r.err != nil {
			continue
		}
		switch r.verdict.Action {
		case differ.ActionSkip:
			continue
		case differ.ActionTouch:
			touched++
			hashRows = append(hashRows, store.SourceHash{Package: r.pkg.Name, Hash: r.verdict.NewHash, HashedAt: now})
		case differ.ActionReextract:
			reextracted++
			reextractNames = append(reextractNames, r.pkg.Name)
			allSymbols = append(allSymbols, r.symbols...)
			hashRows = append(hashRows, store.SourceHash{Package: r.pkg.Name, Hash: r.verdict.NewHash, HashedAt: now})
		}
	}

	if len(reextractNames) > 0 {
		if err := tx.DeleteSymbolsForPackages(ctx, reextractNames); err != nil {
			return 0, 0, err
		}
	}
	if err := tx.InsertSymbols(ctx, allSymbols); err != nil {
		return 0, 0, err
	}
	if err := tx.UpsertSourceHashes(ctx, hashRows); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}

	return reextracted, touched, nil
}
