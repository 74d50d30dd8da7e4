// Package token adapts the external fungible-token service the engine settles
// in. The Postgres client keeps account balances in the token_balances table
// and moves value inside a single transaction with row locks, so a transfer
// either fully applies or leaves both balances untouched.
package token

import (
	"context"
	"database/sql"
	"fmt"

	"billvault/internal/domain/billing"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/shopspring/decimal"
)

// Custom errors. ErrInsufficientBalance wraps the domain sentinel so callers
// dispatching with errors.Is see billing.ErrInsufficientFunds.
var ErrInsufficientBalance = fmt.Errorf("account balance is insufficient for transfer: %w", billing.ErrInsufficientFunds)
var ErrInvalidAmount = fmt.Errorf("transfer amount cannot be negative")

type PostgresClient struct {
	db *sql.DB
}

func NewPostgresClient(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

// Transfer moves amount from one account to another. A zero amount is a
// no-op; the sender row is locked for the duration of the transaction.
func (c *PostgresClient) Transfer(ctx context.Context, from, to billing.Identity, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback()

	var balanceStr string
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM token_balances WHERE account = $1 FOR UPDATE`,
		string(from)).Scan(&balanceStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInsufficientBalance
		}
		return fmt.Errorf("lock sender balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return fmt.Errorf("decode sender balance: %w", err)
	}
	if balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE token_balances SET balance = balance - $2 WHERE account = $1`,
		string(from), amount.String())
	if err != nil {
		return fmt.Errorf("debit sender: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO token_balances (account, balance) VALUES ($1, $2)
          ON CONFLICT (account) DO UPDATE SET balance = token_balances.balance + EXCLUDED.balance`,
		string(to), amount.String())
	if err != nil {
		return fmt.Errorf("credit recipient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}

// Balance reports an account's current balance; unknown accounts read as zero.
func (c *PostgresClient) Balance(ctx context.Context, account billing.Identity) (decimal.Decimal, error) {
	var balanceStr string
	err := c.db.QueryRowContext(ctx,
		`SELECT balance FROM token_balances WHERE account = $1`,
		string(account)).Scan(&balanceStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	return decimal.NewFromString(balanceStr)
}
