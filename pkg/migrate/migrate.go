package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migrations are written relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source is a directory of goose SQL files inside a filesystem.
type Source struct {
	FS  fs.FS
	Dir string
}

// Embedded returns the migrations compiled into the binary.
func Embedded() Source {
	return Source{FS: embedded, Dir: "migrations"}
}

// Disk reads migrations from a local directory.
func Disk(dir string) Source {
	return Source{FS: os.DirFS(dir), Dir: "."}
}

// Runner applies one migration source to a postgres database.
type Runner struct {
	db  *sql.DB
	src Source
}

func NewRunner(db *sql.DB, src Source) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if src.FS == nil || src.Dir == "" {
		return nil, fmt.Errorf("migration source is required")
	}
	return &Runner{db: db, src: src}, nil
}

func (r *Runner) prepare() error {
	goose.SetBaseFS(r.src.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command such as up, down or status.
func (r *Runner) Run(ctx context.Context, command string, args ...string) error {
	if err := r.prepare(); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, r.db, r.src.Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// ToVersion moves the schema up or down until it sits at version.
func (r *Runner) ToVersion(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	if err := r.prepare(); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, r.db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current < target:
		err = goose.UpToContext(ctx, r.db, r.src.Dir, target)
	case current > target:
		err = goose.DownToContext(ctx, r.db, r.src.Dir, target)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
	}
	return nil
}
