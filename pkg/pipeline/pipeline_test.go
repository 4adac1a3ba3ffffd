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

package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/justinjdev/shire/internal/testutil"
	"github.com/justinjdev/shire/pkg/config"
	"github.com/justinjdev/shire/pkg/pipeline"
	"github.com/justinjdev/shire/pkg/store"
)

func newOrchestrator(t *testing.T, root string, st *store.Store) *pipeline.Orchestrator {
	t.Helper()
	return pipeline.New(pipeline.Config{
		RepoRoot: root,
		Settings: config.Default(),
	}, st, nil)
}

func TestRunIndexesNewRepo(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.GoModule("", "github.com/example/widget", "DoThing")
	repo.NPMPackage("frontend", "widget-ui", "1.0.0", map[string]string{"react": "^18.0.0"})

	st := testutil.NewTestStore(t)
	o := newOrchestrator(t, repo.Root, st)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.ManifestsNew)
	require.Equal(t, 0, summary.ManifestsChanged)
	require.Equal(t, 0, summary.ManifestsRemoved)
	require.Equal(t, 2, summary.PackageCount)
	require.True(t, summary.FileIndexRebuilt)
	require.NotZero(t, summary.FileCount)

	packages, err := st.AllPackages(context.Background())
	require.NoError(t, err)
	names := map[string]bool{}
	for _, p := range packages {
		names[p.Name] = true
	}
	require.True(t, names["github.com/example/widget"])
	require.True(t, names["widget-ui"])
}

func TestRunSecondBuildIsUnchanged(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.GoModule("", "github.com/example/widget", "DoThing")

	st := testutil.NewTestStore(t)
	o := newOrchestrator(t, repo.Root, st)
	ctx := context.Background()

	_, err := o.Run(ctx)
	require.NoError(t, err)

	summary, err := o.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, summary.ManifestsNew)
	require.Equal(t, 0, summary.ManifestsChanged)
	require.Equal(t, 1, summary.PackageCount)
	require.False(t, summary.FileIndexRebuilt)
	require.Equal(t, 0, summary.SymbolsReextractedManifest)
}

func TestRunDetectsManifestChange(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.GoModule("", "github.com/example/widget", "DoThing")

	st := testutil.NewTestStore(t)
	o := newOrchestrator(t, repo.Root, st)
	ctx := context.Background()

	_, err := o.Run(ctx)
	require.NoError(t, err)

	repo.WriteFile("go.mod", "module github.com/example/widget\n\ngo 1.24\n\nrequire github.com/pkg/errors v0.9.1\n")
	time.Sleep(10 * time.Millisecond)

	summary, err := o.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ManifestsChanged)
}

func TestRunRemovesDeletedManifest(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.GoModule("", "github.com/example/widget", "DoThing")
	repo.NPMPackage("frontend", "widget-ui", "1.0.0", nil)

	st := testutil.NewTestStore(t)
	o := newOrchestrator(t, repo.Root, st)
	ctx := context.Background()

	first, err := o.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.PackageCount)

	repo.Remove("frontend/package.json")

	summary, err := o.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ManifestsRemoved)
	require.Equal(t, 1, summary.PackageCount)

	packages, err := st.AllPackages(ctx)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	require.Equal(t, "github.com/example/widget", packages[0].Name)
}

func TestRunForceClearsIncrementalState(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.GoModule("", "github.com/example/widget", "DoThing")

	st := testutil.NewTestStore(t)
	o := newOrchestrator(t, repo.Root, st)
	ctx := context.Background()

	_, err := o.Run(ctx)
	require.NoError(t, err)

	forced := pipeline.New(pipeline.Config{
		RepoRoot: repo.Root,
		Force:    true,
		Settings: config.Default(),
	}, st, nil)

	summary, err := forced.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ManifestsNew)
	require.Equal(t, 1, summary.SymbolsReextractedManifest)
}

func TestRunRecordsParseFailureWithoutAbortingBuild(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.WriteFile("broken/package.json", "{not valid json")
	repo.GoModule("sibling", "github.com/example/sibling", "DoThing")

	st := testutil.NewTestStore(t)
	o := newOrchestrator(t, repo.Root, st)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, summary.ParseFailures)

	packages, err := st.AllPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, packages, 1)
	require.Equal(t, "github.com/example/sibling", packages[0].Name)
}
