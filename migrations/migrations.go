// Package migrations embeds the SQL schema for the academy database.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var files embed.FS

// Up applies every *.up.sql file in lexical order. Statements are idempotent.
func Up(ctx context.Context, db *sqlx.DB) error {
	return apply(ctx, db, ".up.sql", false)
}

// Down reverts the schema by running every *.down.sql file in reverse order.
func Down(ctx context.Context, db *sqlx.DB) error {
	return apply(ctx, db, ".down.sql", true)
}

func apply(ctx context.Context, db *sqlx.DB, suffix string, reverse bool) error {
	names, err := fs.Glob(files, "*"+suffix)
	if err != nil {
		return err
	}
	sort.Strings(names)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}
