package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

const dateLayout = "2006-01-02"

const quoteColumns = "id, token_id, quote_date, `open`, `close`, high, low, volume"

const upsertQuoteQuery = `
	INSERT INTO quote_history (token_id, quote_date, ` + "`open`, `close`" + `, high, low, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		` + "`open` = VALUES(`open`)," + `
		` + "`close` = VALUES(`close`)," + `
		high = VALUES(high),
		low = VALUES(low),
		volume = VALUES(volume)
`

// UpsertQuote inserts or updates the quote row for (token, date).
// The unique key on (token_id, quote_date) makes this safe under concurrent
// writers; last write wins.
func (mc *MySQLClient) UpsertQuote(ctx context.Context, quote *models.Quote) error {
	_, err := mc.db.ExecContext(ctx, upsertQuoteQuery,
		quote.TokenID,
		quote.Day().Format(dateLayout),
		quote.Open,
		quote.Close,
		quote.High,
		quote.Low,
		quote.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}

	return nil
}

// UpsertQuotes upserts a batch of quotes within a single transaction, so one
// backfill invocation either persists everything or nothing
func (mc *MySQLClient) UpsertQuotes(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	return mc.ExecTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertQuoteQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, quote := range quotes {
			if _, err := stmt.ExecContext(ctx,
				quote.TokenID,
				quote.Day().Format(dateLayout),
				quote.Open,
				quote.Close,
				quote.High,
				quote.Low,
				quote.Volume,
			); err != nil {
				return fmt.Errorf("failed to upsert quote for %s: %w", quote.Day().Format(dateLayout), err)
			}
		}

		return nil
	})
}

// QuoteDates returns the dates in [start, end] that already have a quote for
// the token, ascending
func (mc *MySQLClient) QuoteDates(ctx context.Context, tokenID int64, start, end time.Time) ([]time.Time, error) {
	query := `
		SELECT quote_date
		FROM quote_history
		WHERE token_id = ? AND quote_date BETWEEN ? AND ?
		ORDER BY quote_date
	`

	rows, err := mc.db.QueryContext(ctx, query, tokenID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query quote dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan quote date: %w", err)
		}
		dates = append(dates, d)
	}

	return dates, rows.Err()
}

// QuoteOnDate retrieves the quote for a token on an exact date
func (mc *MySQLClient) QuoteOnDate(ctx context.Context, tokenID int64, date time.Time) (*models.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quote_history
		WHERE token_id = ? AND quote_date = ?
	`, quoteColumns)

	quote, err := mc.scanQuoteRow(mc.db.QueryRowContext(ctx, query, tokenID, date.Format(dateLayout)))
	if err != nil {
		return nil, fmt.Errorf("failed to get quote on date: %w", err)
	}

	return quote, nil
}

// QuotesFrom retrieves all quotes for a token from the given date onward,
// ascending by date
func (mc *MySQLClient) QuotesFrom(ctx context.Context, tokenID int64, from time.Time) ([]*models.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quote_history
		WHERE token_id = ? AND quote_date >= ?
		ORDER BY quote_date
	`, quoteColumns)

	return mc.queryQuotes(ctx, query, tokenID, from.Format(dateLayout))
}

// QuotesInRange retrieves quotes for a token within [start, end], ascending
func (mc *MySQLClient) QuotesInRange(ctx context.Context, tokenID int64, start, end time.Time) ([]*models.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quote_history
		WHERE token_id = ? AND quote_date BETWEEN ? AND ?
		ORDER BY quote_date
	`, quoteColumns)

	return mc.queryQuotes(ctx, query, tokenID, start.Format(dateLayout), end.Format(dateLayout))
}

// LatestQuote retrieves the most recent quote for a token
func (mc *MySQLClient) LatestQuote(ctx context.Context, tokenID int64) (*models.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quote_history
		WHERE token_id = ?
		ORDER BY quote_date DESC
		LIMIT 1
	`, quoteColumns)

	quote, err := mc.scanQuoteRow(mc.db.QueryRowContext(ctx, query, tokenID))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quote: %w", err)
	}

	return quote, nil
}

func (mc *MySQLClient) queryQuotes(ctx context.Context, query string, args ...interface{}) ([]*models.Quote, error) {
	rows, err := mc.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		quote := &models.Quote{}
		err := rows.Scan(
			&quote.ID,
			&quote.TokenID,
			&quote.Date,
			&quote.Open,
			&quote.Close,
			&quote.High,
			&quote.Low,
			&quote.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}

func (mc *MySQLClient) scanQuoteRow(row *sql.Row) (*models.Quote, error) {
	quote := &models.Quote{}
	err := row.Scan(
		&quote.ID,
		&quote.TokenID,
		&quote.Date,
		&quote.Open,
		&quote.Close,
		&quote.High,
		&quote.Low,
		&quote.Volume,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return quote, nil
}
