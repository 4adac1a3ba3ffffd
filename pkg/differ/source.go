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

package differ

import (
	"time"

	"github.com/justinjdev/shire/pkg/hashing"
)

// SourceAction is the Phase 8 per-package verdict (spec.md §4.11).
type SourceAction string

const (
	// ActionSkip means the mtime shortcut fired: no source file in the
	// package is newer than the stored hashed_at, so nothing changed.
	ActionSkip SourceAction = "skip"
	// ActionTouch means the current aggregate hash still matches the
	// stored one; only hashed_at needs refreshing.
	ActionTouch SourceAction = "touch"
	// ActionReextract means the aggregate hash changed; symbols must be
	// re-extracted for this package.
	ActionReextract SourceAction = "reextract"
)

// SourceVerdict carries the Phase 8 decision and, for ActionReextract, the
// new hash the caller should persist.
type SourceVerdict struct {
	Action  SourceAction
	NewHash string
}

// ClassifySource implements the Phase 8 mtime-shortcut-then-hash decision
// (spec.md §4.11) for one package. absPaths are the package's current
// source files (post extension-filter); storedHash/hashedAt come from the
// pre-fetched source_hashes row, with hasRow false if the package has never
// been hashed.
func ClassifySource(absPaths []string, relPaths map[string]string, storedHash string, hashedAt time.Time, hasRow bool) (SourceVerdict, error) {
	if hasRow && !hashing.HasNewerSourceFiles(absPaths, hashedAt) {
		return SourceVerdict{Action: ActionSkip}, nil
	}

	currentHash, err := hashing.AggregateSourceHash(relPaths)
	if err != nil {
		return SourceVerdict{}, err
	}
	if hasRow && currentHash == storedHash {
		return SourceVerdict{Action: ActionTouch, NewHash: currentHash}, nil
	}
	return SourceVerdict{Action: ActionReextract, NewHash: currentHash}, nil
}
