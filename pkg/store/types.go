// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

// Batch-size caps, driven by SQLite's bind-variable limit (default 32766 on
// modernc.org/sqlite), not by semantics (spec.md §9). Chosen as the spec's
// recommended defaults.
const (
	SymbolBatchSize = 100
	FileBatchSize   = 500
	HashBatchSize   = 500
)

// Package is a row of the packages table (spec.md §3 "Package record").
type Package struct {
	Name        string
	Path        string
	Kind        string
	Version     string
	Description string
	Metadata    string // JSON-encoded free-form metadata object
}

// DependencyEdge is a row of the dependency_edges table.
type DependencyEdge struct {
	Package    string
	Dependency string
	Kind       string // runtime | dev | peer | build
	VersionReq string
	IsInternal bool
}

// Symbol is a row of the symbols table.
type Symbol struct {
	ID           int64
	Package      string
	Name         string
	Kind         string // function | class | struct | interface | type | enum | trait | method | constant
	Signature    string
	FilePath     string
	Line         int
	Visibility   string // defaults to "public"
	ParentSymbol string
	ReturnType   string
	Parameters   string // JSON-encoded []{name, type?}
}

// FileRow is a row of the files table.
type FileRow struct {
	Path      string
	Package   *string // nil when no owning package
	Extension string
	Size      int64
}

// SourceHash is a row of the source_hashes table.
type SourceHash struct {
	Package  string
	Hash     string
	HashedAt int64 // unix seconds
}
