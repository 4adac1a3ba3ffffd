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
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/justinjdev/shire/internal/errors"
	"github.com/justinjdev/shire/pkg/config"
	"github.com/justinjdev/shire/pkg/store"
)

// runServe executes the 'serve' CLI command. The query/RPC contract itself
// is an external collaborator (spec.md §1, §6 "the serving layer's RPC
// contract is out of scope"); this command owns only the documented
// precondition — exit non-zero if the database doesn't exist yet — and the
// read-only handle the serving layer is required to use.
func runServe(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path (default: shire.toml's db_path, or .shire/index.db)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shire serve [options]

Checks that the database exists and opens it read-only, then exits. No
query protocol is served on stdio by this command. Exits non-zero if the
database does not exist; run "shire build" first.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	resolvedDB := *dbPath
	if resolvedDB == "" {
		cwd, err := os.Getwd()
		if err != nil {
			errors.FatalError(errors.NewInternalError("cannot determine current directory", err.Error(), "pass --db explicitly", err), globals.JSON)
		}
		cfg, err := config.Load(cwd)
		if err != nil {
			errors.FatalError(errors.NewConfigError("cannot load shire.toml", err.Error(), "fix the syntax error it reports", err), globals.JSON)
		}
		resolvedDB, err = cfg.ResolveDBPath(cwd)
		if err != nil {
			errors.FatalError(errors.NewConfigError("cannot resolve db_path", err.Error(), "check shire.toml's db_path", err), globals.JSON)
		}
	}

	if _, err := os.Stat(resolvedDB); err != nil {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("no database at %q", resolvedDB),
			"serve requires an existing index",
			`run "shire build" first`,
		), globals.JSON)
	}

	st, err := store.OpenReadOnly(resolvedDB)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			fmt.Sprintf("cannot open database %q read-only", resolvedDB),
			err.Error(),
			"check the file isn't corrupted and is a shire database",
			err,
		), globals.JSON)
	}
	defer st.Close()

	// The query surface (full-text search, dependency BFS, etc.) and its
	// stdio RPC framing are an external collaborator per spec.md §1/§6; this
	// binary's responsibility ends at proving the database opens cleanly.
	fmt.Fprintln(os.Stderr, "database opened read-only; RPC serving is handled by an external query layer")
}
