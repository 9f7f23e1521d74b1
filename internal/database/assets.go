package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

const assetColumns = "id, token_id, user_id, quantity, purchase_price, purchase_date, created_at"

// InsertAsset inserts a new purchase lot
func (mc *MySQLClient) InsertAsset(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO assets (token_id, user_id, quantity, purchase_price, purchase_date)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := mc.db.ExecContext(ctx, query,
		asset.TokenID,
		asset.UserID,
		asset.Quantity,
		asset.PurchasePrice,
		asset.PurchaseDate.Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		asset.ID = id
	}

	return nil
}

// GetAsset retrieves one lot by id
func (mc *MySQLClient) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM assets WHERE id = ?", assetColumns)

	asset := &models.Asset{}
	err := mc.db.QueryRowContext(ctx, query, id).Scan(
		&asset.ID,
		&asset.TokenID,
		&asset.UserID,
		&asset.Quantity,
		&asset.PurchasePrice,
		&asset.PurchaseDate,
		&asset.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return asset, nil
}

// AssetsByUser retrieves every lot owned by a user, oldest purchase first
func (mc *MySQLClient) AssetsByUser(ctx context.Context, userID int64) ([]*models.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM assets WHERE user_id = ? ORDER BY purchase_date, id", assetColumns)

	rows, err := mc.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		asset := &models.Asset{}
		err := rows.Scan(
			&asset.ID,
			&asset.TokenID,
			&asset.UserID,
			&asset.Quantity,
			&asset.PurchasePrice,
			&asset.PurchaseDate,
			&asset.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}

// EarliestPurchaseDate returns the oldest purchase date among a token's lots.
// The zero time means the token has no lots.
func (mc *MySQLClient) EarliestPurchaseDate(ctx context.Context, tokenID int64) (time.Time, error) {
	var earliest sql.NullTime
	err := mc.db.QueryRowContext(ctx,
		"SELECT MIN(purchase_date) FROM assets WHERE token_id = ?", tokenID,
	).Scan(&earliest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get earliest purchase date: %w", err)
	}

	if !earliest.Valid {
		return time.Time{}, nil
	}
	return earliest.Time, nil
}

// DeleteAsset removes a lot owned by the given user.
// Returns false when no matching row existed.
func (mc *MySQLClient) DeleteAsset(ctx context.Context, id, userID int64) (bool, error) {
	result, err := mc.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete asset: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
