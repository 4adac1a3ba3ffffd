// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.CountPackages(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestUpsertAndDeletePackages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	err = tx.UpsertPackages(ctx, []Package{
		{Name: "widget", Path: "services/widget", Kind: "go", Version: "v0.1.0", Description: "github.com/acme/widget"},
		{Name: "gadget", Path: "services/gadget", Kind: "npm", Version: "1.2.3", Description: "gadget"},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	all, err := s.AllPackages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeletePackagesByName(ctx, []string{"gadget"}))
	require.NoError(t, tx.Commit())

	all, err = s.AllPackages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "widget", all[0].Name)
}

func TestUpsertPackagesReplacesWholesale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertPackages(ctx, []Package{
		{Name: "widget", Path: "services/widget", Kind: "go", Version: "v0.1.0"},
	}))
	require.NoError(t, tx.Commit())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertPackages(ctx, []Package{
		{Name: "widget", Path: "services/widget", Kind: "go", Version: "v0.2.0", Description: "bumped"},
	}))
	require.NoError(t, tx.Commit())

	all, err := s.AllPackages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "v0.2.0", all[0].Version)
	require.Equal(t, "bumped", all[0].Description)
}

func TestRecomputeInternalEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertPackages(ctx, []Package{
		{Name: "widget", Path: "services/widget", Kind: "go", Description: "github.com/acme/widget"},
		{Name: "gadget", Path: "services/gadget", Kind: "npm"},
	}))
	require.NoError(t, tx.InsertDependencyEdges(ctx, []DependencyEdge{
		{Package: "gadget", Dependency: "widget", Kind: "runtime"},
		{Package: "gadget", Dependency: "github.com/acme/widget", Kind: "runtime"},
		{Package: "gadget", Dependency: "left-pad", Kind: "runtime"},
	}))
	require.NoError(t, tx.RecomputeInternalEdges(ctx))
	require.NoError(t, tx.Commit())

	edges, err := s.DependencyEdgesForPackage(ctx, "gadget")
	require.NoError(t, err)
	require.Len(t, edges, 3)

	byDep := map[string]DependencyEdge{}
	for _, e := range edges {
		byDep[e.Dependency] = e
	}
	require.True(t, byDep["widget"].IsInternal)
	require.True(t, byDep["github.com/acme/widget"].IsInternal)
	require.False(t, byDep["left-pad"].IsInternal)

	n, err := s.CountInternalEdgesForPackage(ctx, "gadget")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestApplyPackageOverrideUnknownNameReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	ok, err := tx.ApplyPackageOverride(ctx, "does-not-exist", "ignored")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, tx.Commit())
}

func TestSymbolsBatchedInsertAndFTS(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertPackages(ctx, []Package{
		{Name: "widget", Path: "services/widget", Kind: "go"},
	}))
	require.NoError(t, tx.InsertSymbols(ctx, []Symbol{
		{Package: "widget", Name: "NewWidget", Kind: "function", FilePath: "widget.go", Line: 10},
		{Package: "widget", Name: "Widget", Kind: "struct", FilePath: "widget.go", Line: 5},
	}))
	require.NoError(t, tx.Commit())

	syms, err := s.SymbolsForPackage(ctx, "widget")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	require.Equal(t, "Widget", syms[0].Name) // sorted by line: 5 before 10
	require.Equal(t, "public", syms[0].Visibility)

	found, err := s.SearchSymbols(ctx, "NewWidget")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "NewWidget", found[0].Name)
}

func TestSymbolsDeletedWithPackage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertSymbols(ctx, []Symbol{
		{Package: "widget", Name: "Foo", Kind: "function", FilePath: "a.go", Line: 1},
	}))
	require.NoError(t, tx.Commit())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteSymbolsForPackages(ctx, []string{"widget"}))
	require.NoError(t, tx.Commit())

	syms, err := s.SymbolsForPackage(ctx, "widget")
	require.NoError(t, err)
	require.Empty(t, syms)

	found, err := s.SearchSymbols(ctx, "Foo")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestFilesUpsertAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pkg := "widget"
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertFiles(ctx, []FileRow{
		{Path: "services/widget/widget.go", Package: &pkg, Extension: ".go", Size: 512},
		{Path: "services/widget/README.md", Extension: ".md", Size: 128},
	}))
	require.NoError(t, tx.Commit())

	paths, err := s.AllFilePaths(ctx)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	found, err := s.SearchFiles(ctx, "widget.go")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestManifestAndSourceHashRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertManifestHashes(ctx, map[string]string{
		"services/widget/go.mod": "abc123",
	}))
	require.NoError(t, tx.UpsertSourceHashes(ctx, []SourceHash{
		{Package: "widget", Hash: "def456", HashedAt: 1000},
	}))
	require.NoError(t, tx.Commit())

	mh, err := s.ManifestHashes(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc123", mh["services/widget/go.mod"])

	sh, err := s.SourceHashes(ctx)
	require.NoError(t, err)
	require.Equal(t, "def456", sh["widget"].Hash)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteManifestHashes(ctx, []string{"services/widget/go.mod"}))
	require.NoError(t, tx.DeleteSourceHashes(ctx, []string{"widget"}))
	require.NoError(t, tx.Commit())

	mh, err = s.ManifestHashes(ctx)
	require.NoError(t, err)
	require.Empty(t, mh)
}

func TestMetadataRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetMetadata(ctx, MetaKeyPackageCount, "2"))
	require.NoError(t, tx.Commit())

	v, ok, err := s.Metadata(ctx, MetaKeyPackageCount)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v)

	_, ok, err = s.Metadata(ctx, "not-set")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFTSQuoteEscapesOperatorsAndQuotes(t *testing.T) {
	require.Equal(t, `""`, FTSQuote(""))
	require.Equal(t, `"OR"`, FTSQuote("OR"))
	require.Equal(t, `"foo""bar"`, FTSQuote(`foo"bar`))
	require.Equal(t, `"a" "b"`, FTSQuote("a b"))
}

func TestRollbackDiscardsChanges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertPackages(ctx, []Package{{Name: "widget", Path: "w", Kind: "go"}}))
	require.NoError(t, tx.Rollback())

	n, err := s.CountPackages(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	// Rollback after rollback is a no-op, not an error.
	require.NoError(t, tx.Rollback())
}

func TestOpenReadOnlyRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenReadOnly(filepath.Join(dir, "missing.db"))
	require.Error(t, err)
}

func TestOpenReadOnlyRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ro.Close() })

	_, err = ro.Begin(context.Background())
	require.Error(t, err)
}
