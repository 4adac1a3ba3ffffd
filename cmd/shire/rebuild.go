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
	"bufio"
	"fmt"
	"os"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/justinjdev/shire/internal/errors"
)

// runRebuild executes the 'rebuild' CLI command: it signals an already
// running watch daemon to rebuild immediately, rather than waiting for its
// own debounce window (spec.md §6).
func runRebuild(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	root := fs.String("root", "", "Repository root whose watch daemon to signal (default: current directory)")
	fromStdin := fs.Bool("stdin", false, "Read the list of changed paths from stdin before signaling")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shire rebuild [options]

Signals a running "shire watch" daemon to rebuild now. With --stdin, reads
newline-separated changed paths from stdin first (for caller bookkeeping;
the daemon always re-walks the full tree on rebuild).

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	repoRoot := *root
	if repoRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError("cannot determine current directory", err.Error(), "pass --root explicitly", err), globals.JSON)
		}
		repoRoot = cwd
	}

	changed := 0
	if *fromStdin {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if scanner.Text() != "" {
				changed++
			}
		}
	}

	st, ok := readWatchState(repoRoot)
	if !ok {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("no watch daemon is recorded for %q", repoRoot),
			"",
			`start one with "shire watch" first`,
		), globals.JSON)
	}
	if !processAlive(st.PID) {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("watch daemon for %q (pid %d) is not running", repoRoot, st.PID),
			"its PID file is stale",
			`start a new one with "shire watch"`,
		), globals.JSON)
	}

	proc, err := os.FindProcess(st.PID)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError(fmt.Sprintf("cannot find process %d", st.PID), err.Error(), ""), globals.JSON)
	}
	if err := proc.Signal(syscall.SIGUSR1); err != nil {
		errors.FatalError(errors.NewInternalError("cannot signal watch daemon", err.Error(), "", err), globals.JSON)
	}

	if !globals.Quiet {
		fmt.Printf("signaled watch daemon %s (pid %d) to rebuild", st.InstanceID, st.PID)
		if *fromStdin {
			fmt.Printf(" (%d changed path(s) noted)", changed)
		}
		fmt.Println()
	}
}
