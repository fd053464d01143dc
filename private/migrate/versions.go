// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package migrate implements voted-on database migrations as an ordered list
// of versioned steps.
package migrate

import (
	"context"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/private/dbutil/txutil"
	"cinerent.io/cinerent/private/tagsql"
)

// Error is the default migrate errs class.
var Error = errs.Class("migrate")

// Migration describes migration steps for a single database.
type Migration struct {
	// Table is the name of the table tracking the applied version.
	Table string
	Steps []*Step
}

// Step describes a single step in a migration.
type Step struct {
	Description string
	Version     int // versions start at 0
	Action      Action
}

// Action is something that needs to be done inside a migration step.
type Action interface {
	Run(ctx context.Context, log *zap.Logger, tx tagsql.Tx) error
}

// SQL statements that are executed on the database in a single transaction.
type SQL []string

// Run runs the SQL statements.
func (sql SQL) Run(ctx context.Context, log *zap.Logger, tx tagsql.Tx) error {
	for _, query := range sql {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return Error.Wrap(err)
		}
	}
	return nil
}

// ValidateSteps checks that the version for each migration step increments in order.
func (migration *Migration) ValidateSteps() error {
	previous := -1
	for _, step := range migration.Steps {
		if step.Version <= previous {
			return Error.New("steps have incorrect order")
		}
		previous = step.Version
	}
	return nil
}

// Run applies all unapplied migration steps, each inside its own transaction.
func (migration *Migration) Run(ctx context.Context, log *zap.Logger, db tagsql.DB) error {
	if err := migration.ValidateSteps(); err != nil {
		return err
	}

	err := migration.ensureVersionTable(ctx, db)
	if err != nil {
		return Error.Wrap(err)
	}

	version, err := migration.CurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, step := range migration.Steps {
		if step.Version <= version {
			continue
		}

		stepLog := log.With(zap.Int("version", step.Version))
		stepLog.Info("running migration step", zap.String("description", step.Description))

		step := step
		err := txutil.WithTx(ctx, db, func(ctx context.Context, tx tagsql.Tx) error {
			if err := step.Action.Run(ctx, stepLog, tx); err != nil {
				return err
			}
			return migration.addVersion(ctx, tx, step.Version)
		})
		if err != nil {
			return Error.Wrap(err)
		}
	}

	return nil
}

// CurrentVersion returns the latest applied version, or -1 when none is applied.
func (migration *Migration) CurrentVersion(ctx context.Context, db tagsql.DB) (int, error) {
	var version *int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM `+migration.Table).Scan(&version)
	if err != nil {
		return -1, Error.Wrap(err)
	}
	if version == nil {
		return -1, nil
	}
	return *version, nil
}

func (migration *Migration) ensureVersionTable(ctx context.Context, db tagsql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+migration.Table+` (
			version integer NOT NULL,
			commited_at timestamptz NOT NULL DEFAULT now()
		)`)
	return err
}

func (migration *Migration) addVersion(ctx context.Context, tx tagsql.Tx, version int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO `+migration.Table+` (version) VALUES ($1)`, version)
	return err
}
