package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

const tokenColumns = "id, name, symbol, color, user_id, exchange, credential_id, created_at, updated_at"

// InsertToken inserts a new token
func (mc *MySQLClient) InsertToken(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (name, symbol, color, user_id, exchange, credential_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := mc.db.ExecContext(ctx, query,
		token.Name,
		token.Symbol,
		token.Color,
		token.UserID,
		token.Exchange,
		token.CredentialID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		token.ID = id
	}

	return nil
}

// GetTokenByID retrieves a token by its id
func (mc *MySQLClient) GetTokenByID(ctx context.Context, id int64) (*models.Token, error) {
	query := fmt.Sprintf("SELECT %s FROM tokens WHERE id = ?", tokenColumns)
	return mc.scanTokenRow(mc.db.QueryRowContext(ctx, query, id))
}

// GetTokenBySymbol retrieves a token by its unique symbol
func (mc *MySQLClient) GetTokenBySymbol(ctx context.Context, symbol string) (*models.Token, error) {
	query := fmt.Sprintf("SELECT %s FROM tokens WHERE symbol = ?", tokenColumns)
	return mc.scanTokenRow(mc.db.QueryRowContext(ctx, query, symbol))
}

// TokensByUser retrieves all tokens registered by a user
func (mc *MySQLClient) TokensByUser(ctx context.Context, userID int64) ([]*models.Token, error) {
	query := fmt.Sprintf("SELECT %s FROM tokens WHERE user_id = ? ORDER BY symbol", tokenColumns)

	rows, err := mc.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		token, err := mc.scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

func (mc *MySQLClient) scanToken(rows *sql.Rows) (*models.Token, error) {
	token := &models.Token{}
	var exchange sql.NullString
	var credentialID sql.NullInt64

	err := rows.Scan(
		&token.ID,
		&token.Name,
		&token.Symbol,
		&token.Color,
		&token.UserID,
		&exchange,
		&credentialID,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	token.Exchange = exchange.String
	if credentialID.Valid {
		token.CredentialID = &credentialID.Int64
	}

	return token, nil
}

func (mc *MySQLClient) scanTokenRow(row *sql.Row) (*models.Token, error) {
	token := &models.Token{}
	var exchange sql.NullString
	var credentialID sql.NullInt64

	err := row.Scan(
		&token.ID,
		&token.Name,
		&token.Symbol,
		&token.Color,
		&token.UserID,
		&exchange,
		&credentialID,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	token.Exchange = exchange.String
	if credentialID.Valid {
		token.CredentialID = &credentialID.Int64
	}

	return token, nil
}
