// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !sqlite

package monitor

import "fmt"

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("monitor: sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
