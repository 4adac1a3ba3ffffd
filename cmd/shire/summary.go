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
	"fmt"
	"os"
	"sort"

	"github.com/justinjdev/shire/internal/ui"
	"github.com/justinjdev/shire/pkg/pipeline"
)

// printBuildSummary prints the build's primary-stream summary line, the
// error-stream parse-failures block, and the diagnostic timing block
// (spec.md §7 "User-visible failure behavior").
func printBuildSummary(summary *pipeline.BuildSummary, globals GlobalFlags) {
	if !globals.Quiet {
		ui.Success(fmt.Sprintf("Indexed %d packages, %d symbols, %d files",
			summary.PackageCount, summary.SymbolCount, summary.FileCount))
		fmt.Printf("  Manifests: %d new, %d changed, %d removed, %d unchanged\n",
			summary.ManifestsNew, summary.ManifestsChanged, summary.ManifestsRemoved, summary.ManifestsUnchanged)
		fmt.Printf("  Symbols re-extracted: %d (manifest-driven), %d (source-driven), %d touched\n",
			summary.SymbolsReextractedManifest, summary.SymbolsReextractedSource, summary.SourceTouched)
		if summary.FileIndexRebuilt {
			fmt.Println("  File index: rebuilt")
		} else {
			fmt.Println("  File index: unchanged")
		}
		fmt.Printf("  Total time: %s\n", summary.TotalDuration)
	}

	if len(summary.ParseFailures) > 0 {
		_, _ = ui.Yellow.Fprintf(os.Stderr, "⚠ %d manifest(s) failed to parse:\n", len(summary.ParseFailures))
		for _, f := range summary.ParseFailures {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Path, f.Message)
		}
	}

	if globals.Verbose > 0 {
		names := make([]string, 0, len(summary.PhaseDurations))
		for name := range summary.PhaseDurations {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("\nPhase timings:")
		for _, name := range names {
			fmt.Printf("  %-28s %s\n", name, summary.PhaseDurations[name])
		}
	}
}
