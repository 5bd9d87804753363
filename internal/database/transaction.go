package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Transaction is a unit of work spanning several preference and record writes
type Transaction struct {
	*sqlx.Tx
	logger *logrus.Logger
}

// begin opens a read-committed transaction
func (db *DB) begin(ctx context.Context) (*Transaction, error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{Tx: tx, logger: db.logger}, nil
}

// rollback ignores a transaction that already finished
func (tx *Transaction) rollback() {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		tx.logger.WithError(err).Error("Failed to roll back transaction")
	}
}

// WithTransaction runs fn in a transaction, committing when fn returns nil and rolling
// back on an error or a panic. The panic is re-raised after the rollback.
func (db *DB) WithTransaction(ctx context.Context, fn func(*Transaction) error) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
