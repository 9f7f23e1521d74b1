package evolution

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

// AllocationEntry is one token's share of the portfolio valued at its latest
// close
type AllocationEntry struct {
	Token    string          `json:"token"`
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Value    string          `json:"value"`
	Percent  string          `json:"percent"`
}

// AllocationReport is the portfolio distribution snapshot
type AllocationReport struct {
	TotalValue string            `json:"total_value"`
	Entries    []AllocationEntry `json:"entries"`
}

// Allocation groups the user's lots per token, values each position at the
// token's latest stored close and computes its share of the whole portfolio.
// Tokens with no stored quote yet are left out of the distribution.
func (a *Aggregator) Allocation(ctx context.Context, userID int64) (*AllocationReport, error) {
	assets, err := a.lots.AssetsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}

	quantities := make(map[int64]decimal.Decimal)
	var tokenIDs []int64
	for _, asset := range assets {
		if _, ok := quantities[asset.TokenID]; !ok {
			tokenIDs = append(tokenIDs, asset.TokenID)
		}
		quantities[asset.TokenID] = quantities[asset.TokenID].Add(asset.Quantity)
	}
	sort.Slice(tokenIDs, func(i, j int) bool { return tokenIDs[i] < tokenIDs[j] })

	type position struct {
		token    *models.Token
		quantity decimal.Decimal
		value    decimal.Decimal
	}

	var positions []position
	total := decimal.Zero

	for _, tokenID := range tokenIDs {
		token, err := a.tokens.GetTokenByID(ctx, tokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token %d: %w", tokenID, err)
		}
		if token == nil {
			continue
		}

		latest, err := a.quotes.LatestQuote(ctx, tokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest quote for %s: %w", token.Symbol, err)
		}
		if latest == nil {
			a.logger.WithField("symbol", token.Symbol).Warn("No quotes stored yet, excluding from allocation")
			continue
		}

		value := latest.Close.Mul(quantities[tokenID])
		total = total.Add(value)
		positions = append(positions, position{token: token, quantity: quantities[tokenID], value: value})
	}

	report := &AllocationReport{
		TotalValue: total.String(),
		Entries:    make([]AllocationEntry, 0, len(positions)),
	}

	hundred := decimal.NewFromInt(100)
	for _, p := range positions {
		percent := decimal.Zero
		if !total.IsZero() {
			percent = p.value.Div(total).Mul(hundred)
		}

		report.Entries = append(report.Entries, AllocationEntry{
			Token:    p.token.Name,
			Symbol:   p.token.Symbol,
			Quantity: p.quantity,
			Value:    p.value.String(),
			Percent:  percent.StringFixed(2),
		})
	}

	return report, nil
}
