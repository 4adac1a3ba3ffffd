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

package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func recordNames(records []Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestExtractGoExportedOnly(t *testing.T) {
	src := `package widgets

type Widget struct{}

type internal struct{}

const MaxSize = 10

func Build() *Widget { return &Widget{} }

func (w *Widget) Resize(n int) int { return n }

func helper() {}
`
	records, err := Extract([]byte(src), "widget.go", "go")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Widget", "MaxSize", "Build", "Resize"}, recordNames(records))

	for _, r := range records {
		if r.Name == "Resize" {
			require.Equal(t, "method", r.Kind)
			require.Equal(t, "Widget", r.Parent)
		}
	}
}

func TestExtractTypeScriptFunctionsAndClasses(t *testing.T) {
	src := `
function build(n: number): string {
  return n.toString();
}

class Widget {
  resize(n: number): void {}
}

interface Sizeable {
  size(): number;
}
`
	records, err := Extract([]byte(src), "widget.ts", "ts")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"build", "Widget", "resize", "Sizeable"}, recordNames(records))
}

func TestExtractPythonFiltersDundersExceptInit(t *testing.T) {
	src := `
class Widget:
    def __init__(self, size):
        self.size = size

    def __repr__(self):
        return "Widget"

    def resize(self, n):
        return n

def build():
    return Widget(1)
`
	records, err := Extract([]byte(src), "widget.py", "py")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Widget", "__init__", "resize", "build"}, recordNames(records))
}

func TestExtractRustPubOnly(t *testing.T) {
	src := `
pub struct Widget {
    size: i32,
}

struct Internal {}

pub fn build() -> Widget {
    Widget { size: 0 }
}

fn helper() {}

impl Widget {
    pub fn resize(&mut self, n: i32) -> i32 {
        n
    }

    fn private_resize(&mut self) {}
}
`
	records, err := Extract([]byte(src), "widget.rs", "rs")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Widget", "build", "resize"}, recordNames(records))
}

func TestExtractJavaPublicOnly(t *testing.T) {
	src := `
public class Widget {
    public int resize(int n) {
        return n;
    }

    private int helper() {
        return 0;
    }
}

class Internal {}

public interface Sizeable {
}
`
	records, err := Extract([]byte(src), "Widget.java", "java")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Widget", "resize", "Sizeable"}, recordNames(records))
}

func TestExtractPerlFiltersUnderscoreNames(t *testing.T) {
	src := `
sub build {
    return 1;
}

sub _internal_helper {
    return 2;
}
`
	records, err := Extract([]byte(src), "Widget.pm", "pm")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"build"}, recordNames(records))
}

func TestExtractRubyFiltersPrivateBlockAndUnderscoreNames(t *testing.T) {
	src := `
class Widget
  def build
    1
  end

  def _internal
    2
  end

  private

  def resize
    3
  end
end
`
	records, err := Extract([]byte(src), "widget.rb", "rb")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Widget", "build"}, recordNames(records))
}

func TestExtractUnregisteredExtensionReturnsNil(t *testing.T) {
	records, err := Extract([]byte("anything"), "notes.txt", "txt")
	require.NoError(t, err)
	require.Nil(t, records)
}

func TestDefaultExtensionsIncludesEveryRegisteredLanguage(t *testing.T) {
	exts := DefaultExtensions()
	require.Contains(t, exts, "go")
	require.Contains(t, exts, "rs")
	require.Contains(t, exts, "java")
	require.Contains(t, exts, "py")
	require.Contains(t, exts, "rb")
	require.Contains(t, exts, "pl")
}
