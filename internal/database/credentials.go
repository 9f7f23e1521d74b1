package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

const credentialColumns = "id, user_id, exchange, base_url, api_key, api_secret, passphrase, operations, created_at, updated_at"

// InsertCredential inserts a new exchange credential
func (mc *MySQLClient) InsertCredential(ctx context.Context, cred *models.ExchangeCredential) error {
	query := `
		INSERT INTO exchange_credentials (user_id, exchange, base_url, api_key, api_secret, passphrase, operations)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := mc.db.ExecContext(ctx, query,
		cred.UserID,
		cred.Exchange,
		cred.BaseURL,
		cred.APIKey,
		cred.APISecret,
		cred.Passphrase,
		cred.Operations,
	)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		cred.ID = id
	}

	return nil
}

// GetCredential retrieves a credential by id
func (mc *MySQLClient) GetCredential(ctx context.Context, id int64) (*models.ExchangeCredential, error) {
	query := fmt.Sprintf("SELECT %s FROM exchange_credentials WHERE id = ?", credentialColumns)
	return mc.scanCredentialRow(mc.db.QueryRowContext(ctx, query, id))
}

// CredentialsByUser retrieves all credentials owned by a user
func (mc *MySQLClient) CredentialsByUser(ctx context.Context, userID int64) ([]*models.ExchangeCredential, error) {
	query := fmt.Sprintf("SELECT %s FROM exchange_credentials WHERE user_id = ? ORDER BY exchange", credentialColumns)

	rows, err := mc.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []*models.ExchangeCredential
	for rows.Next() {
		cred := &models.ExchangeCredential{}
		err := rows.Scan(
			&cred.ID,
			&cred.UserID,
			&cred.Exchange,
			&cred.BaseURL,
			&cred.APIKey,
			&cred.APISecret,
			&cred.Passphrase,
			&cred.Operations,
			&cred.CreatedAt,
			&cred.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, cred)
	}

	return creds, rows.Err()
}

// CredentialForToken resolves the credential a token's quotes are sourced
// from. Returns (nil, nil) when the token has no linked credential.
func (mc *MySQLClient) CredentialForToken(ctx context.Context, token *models.Token) (*models.ExchangeCredential, error) {
	if !token.HasCredential() {
		return nil, nil
	}
	return mc.GetCredential(ctx, *token.CredentialID)
}

func (mc *MySQLClient) scanCredentialRow(row *sql.Row) (*models.ExchangeCredential, error) {
	cred := &models.ExchangeCredential{}
	err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Exchange,
		&cred.BaseURL,
		&cred.APIKey,
		&cred.APISecret,
		&cred.Passphrase,
		&cred.Operations,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return cred, nil
}
