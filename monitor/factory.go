// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import "fmt"

// NewStore returns a Store for the given backend kind: "" or "memory"
// for the in-memory store, "sqlite" for the SQLite-backed store (only
// available when built with -tags sqlite).  path is the database file
// path for the sqlite backend and ignored otherwise.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("monitor.NewStore: unknown store kind: %q", kind)
	}
}
