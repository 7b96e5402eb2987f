package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

const (
	SchemaGold   = "gold"
	SchemaSilver = "silver"
)

// View maps a remote parquet file to a queryable view.
type View struct {
	Schema string
	Name   string
	Path   string
}

// QualifiedName returns schema.name.
func (v View) QualifiedName() string { return v.Schema + "." + v.Name }

// DefaultViews returns the six mounted facts. silverURI and goldURI are the
// bucket prefixes, e.g. gs://st-madison-silver.
func DefaultViews(silverURI, goldURI string) []View {
	silver := strings.TrimRight(silverURI, "/")
	gold := strings.TrimRight(goldURI, "/")
	return []View{
		{Schema: SchemaSilver, Name: "parcels", Path: silver + "/parcels.parquet"},
		{Schema: SchemaSilver, Name: "streets", Path: silver + "/streets.parquet"},
		{Schema: SchemaSilver, Name: "tax_roll", Path: silver + "/tax_roll.parquet"},
		{Schema: SchemaGold, Name: "alder_districts", Path: gold + "/alder_districts.parquet"},
		{Schema: SchemaGold, Name: "area_plans", Path: gold + "/area_plans.parquet"},
		{Schema: SchemaGold, Name: "sites", Path: gold + "/sites.parquet"},
	}
}

// execer is satisfied by *sql.DB, *sql.Conn and *Guard.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MountViews creates each distinct schema, then creates or replaces every view.
// Running it again against the same engine leaves the same views in place.
func MountViews(ctx context.Context, db execer, views []View) error {
	seen := make(map[string]bool)
	for _, v := range views {
		if !identRe.MatchString(v.Schema) || !identRe.MatchString(v.Name) {
			return fmt.Errorf("invalid view identifier %q", v.QualifiedName())
		}
		if v.Path == "" {
			return fmt.Errorf("view %s has no remote path", v.QualifiedName())
		}
		if seen[v.Schema] {
			continue
		}
		seen[v.Schema] = true
		if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+v.Schema); err != nil {
			return fmt.Errorf("create schema %s: %w", v.Schema, err)
		}
	}

	for _, v := range views {
		if _, err := db.ExecContext(ctx, createViewSQL(v)); err != nil {
			return fmt.Errorf("create view %s: %w", v.QualifiedName(), err)
		}
	}
	return nil
}

func createViewSQL(v View) string {
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s", v.QualifiedName(), quoteLiteral(v.Path))
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
