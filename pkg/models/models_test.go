package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		token   Token
		wantErr bool
	}{
		{"valid", Token{Name: "Bitcoin", Symbol: "BTC"}, false},
		{"missing name", Token{Symbol: "BTC"}, true},
		{"missing symbol", Token{Name: "Bitcoin"}, true},
		{"symbol too long", Token{Name: "Bitcoin", Symbol: "VERYLONGSYMBOL"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.token.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTokenHasCredential(t *testing.T) {
	credID := int64(3)

	token := Token{Exchange: "bybit", CredentialID: &credID}
	assert.True(t, token.HasCredential())

	assert.False(t, (&Token{Exchange: "bybit"}).HasCredential())
	assert.False(t, (&Token{CredentialID: &credID}).HasCredential())
}

func TestCredentialValidate(t *testing.T) {
	valid := ExchangeCredential{
		Exchange:  "bybit",
		BaseURL:   "https://api.bybit.com",
		APIKey:    "key",
		APISecret: "secret",
	}
	assert.NoError(t, valid.Validate())

	missingSecret := valid
	missingSecret.APISecret = ""
	assert.Error(t, missingSecret.Validate())

	missingURL := valid
	missingURL.BaseURL = ""
	assert.Error(t, missingURL.Validate())
}

func TestCredentialSecretsNeverSerialized(t *testing.T) {
	cred := ExchangeCredential{
		Exchange:   "bybit",
		BaseURL:    "https://api.bybit.com",
		APIKey:     "super-secret-key",
		APISecret:  "super-secret",
		Passphrase: "hunter2",
	}

	data, err := json.Marshal(cred)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "super-secret")
	assert.NotContains(t, string(data), "hunter2")
}

func TestCredentialSupportsOperation(t *testing.T) {
	cred := ExchangeCredential{Operations: "spot, kline"}

	assert.True(t, cred.SupportsOperation("spot"))
	assert.True(t, cred.SupportsOperation("KLINE"))
	assert.False(t, cred.SupportsOperation("futures"))
}

func TestAssetValidate(t *testing.T) {
	valid := Asset{
		TokenID:       1,
		Quantity:      decimal.NewFromInt(2),
		PurchasePrice: decimal.NewFromInt(100),
		PurchaseDate:  time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	negQty := valid
	negQty.Quantity = decimal.NewFromInt(-1)
	assert.Error(t, negQty.Validate())

	noDate := valid
	noDate.PurchaseDate = time.Time{}
	assert.Error(t, noDate.Validate())

	noToken := valid
	noToken.TokenID = 0
	assert.Error(t, noToken.Validate())
}

func TestQuoteDayNormalizesToUTCMidnight(t *testing.T) {
	q := Quote{Date: time.Date(2024, time.January, 10, 17, 30, 45, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), q.Day())
}

func TestQuoteSameDay(t *testing.T) {
	a := &Quote{Date: time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)}
	b := &Quote{Date: time.Date(2024, time.January, 10, 23, 0, 0, 0, time.UTC)}
	c := &Quote{Date: time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)}

	assert.True(t, a.SameDay(b))
	assert.False(t, a.SameDay(c))
	assert.False(t, a.SameDay(nil))
}

func TestBackfillRequestPurchaseDay(t *testing.T) {
	req := BackfillRequest{PurchaseDate: "2024-01-10"}

	day, err := req.PurchaseDay()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), day)

	bad := BackfillRequest{PurchaseDate: "10/01/2024"}
	_, err = bad.PurchaseDay()
	assert.Error(t, err)
}
