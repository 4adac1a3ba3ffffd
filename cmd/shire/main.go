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

// Package main implements the shire CLI for indexing monorepo package graphs
// and symbol tables into a local embedded database.
//
// Usage:
//
//	shire build [--root <path>] [--force] [--db <path>]   Run the indexing pipeline
//	shire serve [--db <path>]                              Check the index opens read-only
//	shire watch [--root <path>] [--stop]                    Start/stop the watch daemon
//	shire rebuild [--root <path>] [--stdin]                 Signal the watch daemon
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/justinjdev/shire/internal/ui"
)

// GlobalFlags are flags recognized ahead of the subcommand name and threaded
// into every run* function, the same shape the CLI this one is descended
// from passes down to its subcommands.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Emit machine-readable JSON instead of human-readable text")
		quiet       = flag.Bool("quiet", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		verbose     = flag.Int("verbose", 0, "Verbosity level")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `shire - monorepo package graph and symbol indexer

Usage:
  shire <command> [options]

Commands:
  build      Run the indexing pipeline over a repository
  serve      Check that an existing database opens read-only (no stdio server)
  watch      Start or stop the filesystem-watching daemon
  rebuild    Signal a running watch daemon to rebuild immediately

Global Options:
  --json       Emit machine-readable JSON
  --quiet      Suppress progress output
  --no-color   Disable colored output
  --verbose    Verbosity level (repeatable via level, e.g. --verbose=2)
  --version    Show version and exit

Examples:
  shire build
  shire build --root ./monorepo --force
  shire serve --db .shire/index.db
  shire watch --root ./monorepo
  shire watch --stop
  shire rebuild

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("shire version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{JSON: *jsonOutput, Quiet: *quiet, NoColor: *noColor, Verbose: *verbose}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "build":
		runBuild(cmdArgs, globals)
	case "serve":
		runServe(cmdArgs, globals)
	case "watch":
		runWatch(cmdArgs, globals)
	case "rebuild":
		runRebuild(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)
