// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build sqlite

package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists recordings in a SQLite database file.
type SQLiteStore struct {
	path string
	mu   sync.RWMutex
	db   *sql.DB
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("monitor.SQLiteStore: path is required")
	}
	return &SQLiteStore{path: path}, nil
}

// Init opens the database and creates the schema if needed.
func (st *SQLiteStore) Init(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", st.path)
	if err != nil {
		return fmt.Errorf("monitor.SQLiteStore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("monitor.SQLiteStore: ping: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return err
	}
	st.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS spikes (
	run     TEXT NOT NULL,
	monitor TEXT NOT NULL,
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	step    INTEGER NOT NULL,
	time    REAL NOT NULL,
	neuron  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS spikes_run_mon ON spikes (run, monitor);

CREATE TABLE IF NOT EXISTS state (
	run     TEXT NOT NULL,
	monitor TEXT NOT NULL,
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	step    INTEGER NOT NULL,
	time    REAL NOT NULL,
	idx     INTEGER NOT NULL,
	value   REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS state_run_mon ON state (run, monitor);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("monitor.SQLiteStore: create tables: %w", err)
	}
	return nil
}

func (st *SQLiteStore) getDB() (*sql.DB, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.db == nil {
		return nil, fmt.Errorf("monitor.SQLiteStore: not initialized")
	}
	return st.db, nil
}

func (st *SQLiteStore) SaveSpikes(ctx context.Context, run, mon string, recs []SpikeRec) error {
	db, err := st.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO spikes (run, monitor, step, time, neuron) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, run, mon, rec.Step, rec.Time, rec.Neuron); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (st *SQLiteStore) GetSpikes(ctx context.Context, run, mon string) ([]SpikeRec, bool, error) {
	db, err := st.getDB()
	if err != nil {
		return nil, false, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT step, time, neuron FROM spikes WHERE run = ? AND monitor = ? ORDER BY seq`,
		run, mon)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	var recs []SpikeRec
	for rows.Next() {
		var rec SpikeRec
		if err := rows.Scan(&rec.Step, &rec.Time, &rec.Neuron); err != nil {
			return nil, false, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs, true, nil
}

func (st *SQLiteStore) SaveState(ctx context.Context, run, mon string, recs []StateRec) error {
	db, err := st.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO state (run, monitor, step, time, idx, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, rec := range recs {
		for i, val := range rec.Values {
			if _, err := stmt.ExecContext(ctx, run, mon, rec.Step, rec.Time, i, val); err != nil {
				tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

func (st *SQLiteStore) GetState(ctx context.Context, run, mon string) ([]StateRec, bool, error) {
	db, err := st.getDB()
	if err != nil {
		return nil, false, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT step, time, idx, value FROM state WHERE run = ? AND monitor = ? ORDER BY seq`,
		run, mon)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	var recs []StateRec
	for rows.Next() {
		var step, idx int
		var tm float32
		var val float32
		if err := rows.Scan(&step, &tm, &idx, &val); err != nil {
			return nil, false, err
		}
		// rows come back in insertion order; idx 0 starts a new snapshot
		if idx == 0 || len(recs) == 0 {
			recs = append(recs, StateRec{Step: step, Time: tm})
		}
		last := &recs[len(recs)-1]
		last.Values = append(last.Values, val)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs, true, nil
}

// Close closes the database.
func (st *SQLiteStore) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.db == nil {
		return nil
	}
	err := st.db.Close()
	st.db = nil
	return err
}
