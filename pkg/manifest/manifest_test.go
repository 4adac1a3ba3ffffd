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

package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justinjdev/shire/pkg/walker"
)

func edgeMap(edges []DependencyEdge) map[string]DependencyEdge {
	m := make(map[string]DependencyEdge, len(edges))
	for _, e := range edges {
		m[e.Dependency] = e
	}
	return m
}

func TestParseNPM(t *testing.T) {
	content := []byte(`{
		"name": "widgets",
		"version": "1.2.0",
		"description": "widget factory",
		"dependencies": {"left-pad": "^1.0.0", "shared-lib": "workspace:*"},
		"devDependencies": {"jest": "^29.0.0"},
		"peerDependencies": {"react": "^18.0.0"}
	}`)
	result, err := parseNPM(content, "packages/widgets", nil)
	require.NoError(t, err)
	require.Equal(t, "widgets", result.Package.Name)
	require.Equal(t, "1.2.0", result.Package.Version)
	require.Equal(t, "npm", result.Package.Kind)

	edges := edgeMap(result.Edges)
	require.Equal(t, "runtime", edges["left-pad"].Kind)
	require.Equal(t, "*", edges["shared-lib"].VersionReq)
	require.Equal(t, "dev", edges["jest"].Kind)
	require.Equal(t, "peer", edges["react"].Kind)
}

func TestParseNPMFallsBackToDirName(t *testing.T) {
	result, err := parseNPM([]byte(`{}`), "packages/unnamed", nil)
	require.NoError(t, err)
	require.Equal(t, "packages-unnamed", result.Package.Name)
}

func TestParseGoModule(t *testing.T) {
	content := []byte(`module github.com/acme/widgets

go 1.22

require github.com/single/dep v1.0.0

require (
	github.com/block/one v1.2.3
	github.com/block/two v2.0.0 // indirect
)
`)
	result, err := parseGo(content, "", nil)
	require.NoError(t, err)
	require.Equal(t, "widgets", result.Package.Name)
	require.Equal(t, "github.com/acme/widgets", result.Package.Description)
	require.Equal(t, "go", result.Package.Kind)

	edges := edgeMap(result.Edges)
	require.Len(t, edges, 3)
	require.Equal(t, "v1.0.0", edges["github.com/single/dep"].VersionReq)
	require.Equal(t, "v2.0.0", edges["github.com/block/two"].VersionReq)
}

func TestParseGoWorkMembers(t *testing.T) {
	content := []byte(`go 1.22

use (
	./cmd/a
	./cmd/b
)

use ./pkg/shared
`)
	members := parseGoWork(content, "")
	require.Contains(t, members, "cmd/a")
	require.Contains(t, members, "cmd/b")
	require.Contains(t, members, "pkg/shared")
}

func TestParseCargoWorkspaceMember(t *testing.T) {
	ws := NewWorkspaceContext()
	ws.CargoWorkspaceDeps["serde"] = "1.0.188"

	content := []byte(`[package]
name = "core"
version = "0.3.0"
description = "core crate"

[dependencies]
serde = { workspace = true }
thiserror = "1.0"

[dev-dependencies]
proptest = "1.3"
`)
	result, err := parseCargo(content, "crates/core", ws)
	require.NoError(t, err)
	require.Equal(t, "core", result.Package.Name)

	edges := edgeMap(result.Edges)
	require.Equal(t, "1.0.188", edges["serde"].VersionReq)
	require.Equal(t, "runtime", edges["thiserror"].Kind)
	require.Equal(t, "dev", edges["proptest"].Kind)
}

func TestParseCargoWorkspaceRootHasNoPackage(t *testing.T) {
	ws := NewWorkspaceContext()
	content := []byte(`[workspace]
members = ["crates/core"]

[workspace.dependencies]
serde = "1.0.188"
`)
	result, err := parseCargo(content, "", ws)
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, "1.0.188", ws.CargoWorkspaceDeps["serde"])
}

func TestParsePythonPEP621(t *testing.T) {
	content := []byte(`[project]
name = "widgets"
version = "0.1.0"
description = "widget factory"
dependencies = ["requests>=2.0,<3.0", "click"]

[project.optional-dependencies]
test = ["pytest>=7.0"]
`)
	result, err := parsePython(content, "", nil)
	require.NoError(t, err)
	require.Equal(t, "widgets", result.Package.Name)

	edges := edgeMap(result.Edges)
	require.Equal(t, "runtime", edges["requests"].Kind)
	require.Equal(t, ">=2.0,<3.0", edges["requests"].VersionReq)
	require.Equal(t, "dev", edges["pytest"].Kind)
}

func TestParsePythonPoetryFallback(t *testing.T) {
	content := []byte(`[tool.poetry]
name = "widgets"
version = "0.1.0"

[tool.poetry.dependencies]
python = "^3.10"
requests = "^2.0"
`)
	result, err := parsePython(content, "", nil)
	require.NoError(t, err)
	require.Equal(t, "widgets", result.Package.Name)

	edges := edgeMap(result.Edges)
	require.NotContains(t, edges, "python")
	require.Equal(t, "^2.0", edges["requests"].VersionReq)
}

func TestParseMavenWithParentInheritance(t *testing.T) {
	ws := NewWorkspaceContext()
	ws.MavenParents["com.acme:parent"] = MavenParent{
		GroupID:              "com.acme",
		Version:              "2.0.0",
		DependencyManagement: map[string]string{"com.acme:lib": "2.0.0"},
	}

	content := []byte(`<project>
	<parent>
		<groupId>com.acme</groupId>
		<artifactId>parent</artifactId>
		<version>2.0.0</version>
	</parent>
	<artifactId>widgets</artifactId>
	<dependencies>
		<dependency>
			<groupId>com.acme</groupId>
			<artifactId>lib</artifactId>
		</dependency>
		<dependency>
			<groupId>org.junit</groupId>
			<artifactId>junit</artifactId>
			<version>5.9.0</version>
			<scope>test</scope>
		</dependency>
	</dependencies>
</project>`)
	result, err := parseMaven(content, "widgets", ws)
	require.NoError(t, err)
	require.Equal(t, "com.acme:widgets", result.Package.Name)
	require.Equal(t, "2.0.0", result.Package.Version)

	edges := edgeMap(result.Edges)
	require.Equal(t, "2.0.0", edges["com.acme:lib"].VersionReq)
	require.Equal(t, "dev", edges["org.junit:junit"].Kind)
}

func TestScanMavenParentRegistersAggregator(t *testing.T) {
	ws := NewWorkspaceContext()
	content := []byte(`<project>
	<groupId>com.acme</groupId>
	<artifactId>parent</artifactId>
	<version>2.0.0</version>
	<packaging>pom</packaging>
	<modules>
		<module>widgets</module>
	</modules>
	<dependencyManagement>
		<dependencies>
			<dependency>
				<groupId>com.acme</groupId>
				<artifactId>lib</artifactId>
				<version>2.0.0</version>
			</dependency>
		</dependencies>
	</dependencyManagement>
</project>`)
	scanMavenParent(content, ws)
	parent, ok := ws.MavenParents["com.acme:parent"]
	require.True(t, ok)
	require.Equal(t, "2.0.0", parent.DependencyManagement["com.acme:lib"])
}

func TestParseGradleGroupAndDependencies(t *testing.T) {
	content := []byte(`group = 'com.acme'

dependencies {
    implementation 'com.acme:lib:1.0.0'
    testImplementation "org.junit:junit:5.9.0"
    compileOnly "org.projectlombok:lombok:1.18.0"
}
`)
	ws := NewWorkspaceContext()
	result, err := parseGradle(content, "widgets", ws)
	require.NoError(t, err)
	require.Equal(t, "com.acme:widgets", result.Package.Name)

	edges := edgeMap(result.Edges)
	require.Equal(t, "runtime", edges["com.acme:lib"].Kind)
	require.Equal(t, "dev", edges["org.junit:junit"].Kind)
	require.Equal(t, "peer", edges["org.projectlombok:lombok"].Kind)
}

func TestParseGradleSettingsIncludes(t *testing.T) {
	ws := NewWorkspaceContext()
	content := []byte(`rootProject.name = 'acme-root'
include ':widgets'
include(':sub:mod')
`)
	parseGradleSettings(content, "", ws)
	require.Equal(t, "acme-root", ws.GradleRootNames[""])
	require.Contains(t, ws.GradleMembers, "widgets")
	require.Contains(t, ws.GradleMembers, "sub/mod")
}

func TestParsePerlRequiresAndTestBlock(t *testing.T) {
	content := []byte(`requires 'Moose', '2.0';
requires 'JSON';

on 'test' => sub {
    requires 'Test::More', '1.0';
};
`)
	result, err := parsePerl(content, "", nil)
	require.NoError(t, err)

	edges := edgeMap(result.Edges)
	require.Equal(t, "runtime", edges["Moose"].Kind)
	require.Equal(t, "2.0", edges["Moose"].VersionReq)
	require.Equal(t, "dev", edges["Test::More"].Kind)
}

func TestParseRubyGemAndGroupBlock(t *testing.T) {
	content := []byte(`source 'https://rubygems.org'

gem 'rails', '7.0.0'

group :test do
  gem 'rspec'
end
`)
	result, err := parseRuby(content, "", nil)
	require.NoError(t, err)

	edges := edgeMap(result.Edges)
	require.Equal(t, "runtime", edges["rails"].Kind)
	require.Equal(t, "7.0.0", edges["rails"].VersionReq)
	require.Equal(t, "dev", edges["rspec"].Kind)
}

func TestBuildWorkspaceContextAggregatesAllEcosystems(t *testing.T) {
	manifests := []walker.ManifestFile{
		{
			Path: "go.work", Dir: "", Base: "go.work",
			Content: []byte("go 1.22\nuse ./cmd/a\n"),
		},
		{
			Path: "Cargo.toml", Dir: "", Base: "Cargo.toml",
			Content: []byte("[workspace]\nmembers = [\"crates/core\"]\n\n[workspace.dependencies]\nserde = \"1.0\"\n"),
		},
		{
			Path: "settings.gradle", Dir: "", Base: "settings.gradle",
			Content: []byte("include ':widgets'\n"),
		},
		{
			Path: "widgets/pom.xml", Dir: "widgets", Base: "pom.xml",
			Content: []byte(`<project><groupId>com.acme</groupId><artifactId>parent</artifactId><version>1.0</version><packaging>pom</packaging><modules><module>a</module></modules></project>`),
		},
	}

	ws := BuildWorkspaceContext(manifests)
	require.Contains(t, ws.GoWorkMembers, "cmd/a")
	require.Equal(t, "1.0", ws.CargoWorkspaceDeps["serde"])
	require.Contains(t, ws.GradleMembers, "widgets")
	require.Contains(t, ws.MavenParents, "com.acme:parent")
}

func TestParseAnnotatesWorkspaceMetadata(t *testing.T) {
	ws := NewWorkspaceContext()
	ws.GoWorkMembers["cmd/a"] = struct{}{}

	content := []byte("module github.com/acme/a\n\ngo 1.22\n")
	result, err := Parse("go.mod", content, "cmd/a", ws)
	require.NoError(t, err)
	require.Equal(t, "true", result.Package.Metadata["go_workspace"])
}

func TestParseSkipsWorkspaceOnlyBasenames(t *testing.T) {
	result, err := Parse("go.work", []byte("go 1.22\n"), "", NewWorkspaceContext())
	require.NoError(t, err)
	require.Nil(t, result)
}
