package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrUnitClosed is returned when a finished unit of work is used again.
var ErrUnitClosed = errors.New("unit of work already finished")

// Unit is a scoped unit of work over one database transaction. It is
// committed or rolled back exactly once.
type Unit struct {
	tx   *gorm.DB
	done bool
}

// Begin acquires a transaction bound to ctx.
func Begin(ctx context.Context, db *gorm.DB) (*Unit, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &Unit{tx: tx}, nil
}

// Tx returns the handle statements of this unit must run on.
func (u *Unit) Tx() *gorm.DB {
	return u.tx
}

// Commit makes every statement of the unit visible.
func (u *Unit) Commit() error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the unit. It is a no-op after Commit or a previous Rollback.
func (u *Unit) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}

// Run executes fn inside a new unit: commit on a nil return, rollback on an
// error or panic. The transaction is released in every case.
func Run(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	unit, err := Begin(ctx, db)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = unit.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := unit.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
			}
		}
	}()

	if err = fn(unit.Tx()); err != nil {
		return err
	}
	return unit.Commit()
}
