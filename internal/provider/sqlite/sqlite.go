// Package sqlite serves list items from a SQLite table.
//
// The table is
//
//	items(idx INTEGER PRIMARY KEY, content TEXT NOT NULL, style TEXT)
//
// with idx dense from 0.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // "sqlite" driver

	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/virtual"
)

// Kind is the provider kind registered by this package.
const Kind = "sqlite"

const schema = `CREATE TABLE IF NOT EXISTS items (
	idx     INTEGER PRIMARY KEY,
	content TEXT NOT NULL,
	style   TEXT
)`

func init() {
	provider.RegisterFactory(Kind, func(src provider.Source) (provider.Provider, error) {
		return Open(src.ID, src.Path)
	})
}

// Provider reads items from a SQLite database.
type Provider struct {
	id string
	db *sql.DB
}

// Open opens the database at path, creating the items table if missing.
func Open(id, path string) (*Provider, error) {
	if path == "" {
		return nil, provider.ErrSourceRequired
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Provider{id: id, db: db}, nil
}

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// ID returns the provider ID.
func (p *Provider) ID() string { return p.id }

// Count returns the number of rows.
func (p *Provider) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Item returns the row with the given idx.
func (p *Provider) Item(ctx context.Context, index int) (virtual.Item, error) {
	var (
		content string
		style   sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT content, style FROM items WHERE idx = ?`, index).Scan(&content, &style)
	if errors.Is(err, sql.ErrNoRows) {
		return virtual.Item{}, fmt.Errorf("%w: no row %d", provider.ErrIndexOutOfRange, index)
	}
	if err != nil {
		return virtual.Item{}, fmt.Errorf("query item %d: %w", index, err)
	}
	return virtual.Item{Content: content, Style: style.String}, nil
}

// Close closes the database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Write replaces the table contents with items, indexed by position.
func Write(ctx context.Context, path string, items []virtual.Item) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (idx, content, style) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, item := range items {
		var style sql.NullString
		if item.HasStyle() {
			style = sql.NullString{String: item.Style, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, item.Content, style); err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return tx.Commit()
}
