package services

import (
	"context"
	"fmt"
	"warrantyhub/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// TransactionService runs a unit of work in one database transaction.
type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("transactionService"),
	}
}

// Execute commits when fn returns nil and rolls back otherwise. A panic in fn
// is rolled back and returned as an error; if that rollback also fails the
// panic is re-raised.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	log := ts.log.TraceFromContext(ctx).Function("Execute")

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return log.Err("failed to begin transaction", tx.Error)
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("failed to roll back after panic", rollbackErr, "panic", r)
			panic(fmt.Sprintf("transaction rollback failed: %v (panic: %v)", rollbackErr, r))
		}
		err = log.ErrMsg(fmt.Sprintf("panic during transaction: %v", r))
	}()

	if err = fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("failed to roll back transaction", rollbackErr, "originalError", err)
			return fmt.Errorf("rollback failed: %w (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return log.Err("failed to commit transaction", err)
	}

	return nil
}
