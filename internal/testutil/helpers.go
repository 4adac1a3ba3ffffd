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

// Package testing provides fixture builders shared across shire's test
// suites: an on-disk repository tree of manifests and source files, and an
// open pkg/store.Store to index it into.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/justinjdev/shire/pkg/store"
)

// NewTestStore opens a fresh SQLite store under t.TempDir(), closed
// automatically when the test finishes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "shire.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Repo is an on-disk fixture repository under a temp directory, built up
// file by file before a build is run against its Root.
type Repo struct {
	t    *testing.T
	Root string
}

// NewRepo creates an empty fixture repository under t.TempDir().
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	return &Repo{t: t, Root: t.TempDir()}
}

// WriteFile writes content at relPath under the repo root, creating parent
// directories as needed.
func (r *Repo) WriteFile(relPath, content string) {
	r.t.Helper()
	abs := filepath.Join(r.Root, relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		r.t.Fatalf("mkdir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", relPath, err)
	}
}

// Remove deletes a file previously written to the fixture repo.
func (r *Repo) Remove(relPath string) {
	r.t.Helper()
	if err := os.Remove(filepath.Join(r.Root, relPath)); err != nil {
		r.t.Fatalf("remove %s: %v", relPath, err)
	}
}

// GoModule seeds a minimal go.mod + one Go source file at dir (relative to
// the repo root, "" for the root module).
func (r *Repo) GoModule(dir, modulePath string, exportedFuncs ...string) {
	r.t.Helper()
	r.WriteFile(filepath.Join(dir, "go.mod"), "module "+modulePath+"\n\ngo 1.24\n")

	var body string
	for _, fn := range exportedFuncs {
		body += "func " + fn + "() {}\n\n"
	}
	r.WriteFile(filepath.Join(dir, "main.go"), "package main\n\n"+body)
}

// NPMPackage seeds a minimal package.json at dir.
func (r *Repo) NPMPackage(dir, name, version string, deps map[string]string) {
	r.t.Helper()
	depsJSON := "{}"
	if len(deps) > 0 {
		depsJSON = "{"
		first := true
		for name, ver := range deps {
			if !first {
				depsJSON += ","
			}
			first = false
			depsJSON += `"` + name + `":"` + ver + `"`
		}
		depsJSON += "}"
	}
	r.WriteFile(filepath.Join(dir, "package.json"),
		`{"name":"`+name+`","version":"`+version+`","dependencies":`+depsJSON+"}")
}
