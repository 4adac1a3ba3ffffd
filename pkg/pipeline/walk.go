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

	"github.com/justinjdev/shire/pkg/differ"
	"github.com/justinjdev/shire/pkg/hashing"
	"github.com/justinjdev/shire/pkg/manifest"
	"github.com/justinjdev/shire/pkg/store"
	"github.com/justinjdev/shire/pkg/symbols"
	"github.com/justinjdev/shire/pkg/walker"
)

// walkState is everything Phase 1 produces, consulted by every later phase.
type walkState struct {
	w                *walker.Walker
	manifests        []walker.ManifestFile
	manifestByPath   map[string]walker.ManifestFile
	manifestHashes   map[string]string
	ws               *manifest.WorkspaceContext
	sourceExtensions map[string]struct{}
	extraExclude     map[string]struct{}
}

// parseState is everything Phase 3 produces, consumed by Phases 4-9.
type parseState struct {
	failures []ParseFailure

	// finalPackages is the set of packages Phase 3 actually wrote this
	// build (freshly parsed manifests merged with virtual discovery
	// packages) — NOT the repo's complete package set; see
	// buildState.allPackages for that.
	finalPackages []store.Package
	finalByPath   map[string]store.Package

	// manifestReextract is the set of package names whose manifest was
	// new/changed this build and which still own their path after the
	// discovery merge (spec.md §4.10 Phase 7 input).
	manifestReextract map[string]struct{}
}

// buildState threads every phase's output to the phases after it.
type buildState struct {
	walk  *walkState
	diff  differ.HashDiff
	parse *parseState

	// allPackages is the complete, authoritative package set as it stands
	// after Phase 4 (every manifest-derived and virtual package this repo
	// currently has, not just the ones touched this build) — Phase 8 and
	// Phase 9 both need the full set, not merely what Phase 3 wrote.
	allPackages []store.Package
}

// phase1Walk performs the manifest walk and workspace-context pre-scan
// (spec.md §4.4).
func (o *Orchestrator) phase1Walk() (*walkState, error) {
	w := walker.New(o.cfg.RepoRoot, o.cfg.Settings.ExcludeDirSet())

	manifests, err := w.Manifests(o.cfg.Settings.ManifestSet())
	if err != nil {
		return nil, err
	}

	manifestHashes := make(map[string]string, len(manifests))
	manifestByPath := make(map[string]walker.ManifestFile, len(manifests))
	for _, m := range manifests {
		manifestHashes[m.Path] = hashing.HashBytes(m.Content)
		manifestByPath[m.Path] = m
	}

	ws := manifest.BuildWorkspaceContext(manifests)
	sourceExt := o.cfg.Settings.SymbolExtensions(symbols.DefaultExtensions())

	return &walkState{
		w:                w,
		manifests:        manifests,
		manifestByPath:   manifestByPath,
		manifestHashes:   manifestHashes,
		ws:               ws,
		sourceExtensions: sourceExt,
		extraExclude:     walker.DefaultSourceExcludes(),
	}, nil
}

// phase2Diff compares the current manifest-hash map against the stored one
// (spec.md §4.5).
func (o *Orchestrator) phase2Diff(ctx context.Context, ws *walkState) (differ.HashDiff, error) {
	stored, err := o.store.ManifestHashes(ctx)
	if err != nil {
		return differ.HashDiff{}, err
	}
	return differ.DiffHashes(ws.manifestHashes, stored), nil
}
