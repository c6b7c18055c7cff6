package postgresql

import (
	"context"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// GetQuerier returns the transaction stored in ctx under "tx", or the pool.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value("tx").(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}
