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
	"fmt"

	"github.com/beevik/etree"
)

// parseMaven parses pom.xml (spec.md §6 Maven row): name is
// `groupId:artifactId`, inheriting groupId/version from <parent> when the
// POM omits its own. Aggregator/parent POMs (packaging "pom" with
// <modules>) contribute their groupId/version/dependencyManagement to ws
// keyed by their own coordinates, for child POMs declaring a matching
// <parent> to pick up later in the same pass.
func parseMaven(content []byte, dir string, ws *WorkspaceContext) (*ParseResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("parse pom.xml: %w", err)
	}
	root := doc.SelectElement("project")
	if root == nil {
		return nil, fmt.Errorf("parse pom.xml: missing <project> root")
	}

	groupID := childText(root, "groupId")
	artifactID := childText(root, "artifactId")
	version := childText(root, "version")
	packaging := childText(root, "packaging")

	var parent MavenParent
	var haveParent bool
	if parentEl := root.SelectElement("parent"); parentEl != nil {
		parentGroup := childText(parentEl, "groupId")
		parentArtifact := childText(parentEl, "artifactId")
		parentVersion := childText(parentEl, "version")
		if p, ok := ws.MavenParents[parentGroup+":"+parentArtifact]; ok {
			parent, haveParent = p, true
		} else {
			parent = MavenParent{GroupID: parentGroup, Version: parentVersion}
		}
		if groupID == "" {
			groupID = parent.GroupID
		}
		if version == "" {
			version = parent.Version
		}
	}

	name := artifactID
	if groupID != "" {
		name = groupID + ":" + artifactID
	}
	if name == "" {
		name = dirPackageName(dir)
	}

	var edges []DependencyEdge
	depMgmt := make(map[string]string)
	if mgmt := root.FindElement("dependencyManagement/dependencies"); mgmt != nil {
		for _, depEl := range mgmt.SelectElements("dependency") {
			depMgmt[childText(depEl, "groupId")+":"+childText(depEl, "artifactId")] = childText(depEl, "version")
		}
	}
	if haveParent {
		for k, v := range parent.DependencyManagement {
			if _, ok := depMgmt[k]; !ok {
				depMgmt[k] = v
			}
		}
	}

	if depsEl := root.SelectElement("dependencies"); depsEl != nil {
		for _, depEl := range depsEl.SelectElements("dependency") {
			depGroup := childText(depEl, "groupId")
			depArtifact := childText(depEl, "artifactId")
			depVersion := childText(depEl, "version")
			if depVersion == "" {
				depVersion = depMgmt[depGroup+":"+depArtifact]
			}
			kind := "runtime"
			switch childText(depEl, "scope") {
			case "test":
				kind = "dev"
			case "provided", "system":
				kind = "build"
			}
			edges = append(edges, DependencyEdge{
				Dependency: depGroup + ":" + depArtifact,
				Kind:       kind,
				VersionReq: depVersion,
			})
		}
	}

	isAggregator := packaging == "pom" && root.SelectElement("modules") != nil
	if isAggregator {
		ws.MavenParents[groupID+":"+artifactID] = MavenParent{
			GroupID:              groupID,
			Version:              version,
			DependencyManagement: depMgmt,
		}
	}

	return &ParseResult{
		Package: Package{
			Name:    name,
			Path:    dir,
			Kind:    "maven",
			Version: version,
		},
		Edges: edges,
	}, nil
}

// scanMavenParent is the Phase 1 pre-scan half of Maven parent/aggregator
// handling (spec.md §4.4): it looks only for POMs declaring both <modules>
// and <packaging>pom</packaging>, registering their coordinates in ws ahead
// of the per-manifest parse phase so child POMs processed in arbitrary
// order can still resolve inheritance.
func scanMavenParent(content []byte, ws *WorkspaceContext) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return
	}
	root := doc.SelectElement("project")
	if root == nil {
		return
	}
	if childText(root, "packaging") != "pom" || root.SelectElement("modules") == nil {
		return
	}

	groupID := childText(root, "groupId")
	artifactID := childText(root, "artifactId")
	version := childText(root, "version")

	depMgmt := make(map[string]string)
	if mgmt := root.FindElement("dependencyManagement/dependencies"); mgmt != nil {
		for _, depEl := range mgmt.SelectElements("dependency") {
			depMgmt[childText(depEl, "groupId")+":"+childText(depEl, "artifactId")] = childText(depEl, "version")
		}
	}

	ws.MavenParents[groupID+":"+artifactID] = MavenParent{
		GroupID:              groupID,
		Version:              version,
		DependencyManagement: depMgmt,
	}
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}
