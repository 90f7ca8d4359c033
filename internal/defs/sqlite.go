package defs

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"gridhold/server/internal/defs/migrations"
	"gridhold/server/internal/storage/sqlitemigrate"
)

// OpenSQLite loads a registry from the definitions database at path,
// creating the schema if the file is new.
func OpenSQLite(ctx context.Context, path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("definitions path is required")
	}
	dsn := filepath.Clean(path) + "?_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return Load(ctx, db)
}

// Migrate creates the definition tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := sqlitemigrate.Apply(ctx, db, migrations.FS, ""); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Load reads every definition from db.
func Load(ctx context.Context, db *sql.DB) (*Registry, error) {
	objects, err := loadObjects(ctx, db)
	if err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, db)
	if err != nil {
		return nil, err
	}
	return NewRegistry(objects, items)
}

func loadObjects(ctx context.Context, db *sql.DB) ([]ObjectDefinition, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, description, size_x, size_y, solid, walkable, has_actions
FROM object_definitions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query object definitions: %w", err)
	}
	defer rows.Close()

	var out []ObjectDefinition
	for rows.Next() {
		var def ObjectDefinition
		if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.SizeX, &def.SizeY, &def.Solid, &def.Walkable, &def.HasActions); err != nil {
			return nil, fmt.Errorf("scan object definition: %w", err)
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate object definitions: %w", err)
	}
	return out, nil
}

func loadItems(ctx context.Context, db *sql.DB) ([]ItemDefinition, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, stackable FROM item_definitions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query item definitions: %w", err)
	}
	defer rows.Close()

	var out []ItemDefinition
	for rows.Next() {
		var def ItemDefinition
		if err := rows.Scan(&def.ID, &def.Name, &def.Stackable); err != nil {
			return nil, fmt.Errorf("scan item definition: %w", err)
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item definitions: %w", err)
	}
	return out, nil
}
