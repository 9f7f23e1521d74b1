package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalQueryStringSortsKeys(t *testing.T) {
	params := url.Values{}
	params.Set("timestamp", "1700000000000")
	params.Set("api_key", "abc")
	params.Set("symbol", "BTCUSD")
	params.Set("interval", "1D")

	assert.Equal(t,
		"api_key=abc&interval=1D&symbol=BTCUSD&timestamp=1700000000000",
		CanonicalQueryString(params),
	)
}

func TestCanonicalQueryStringUsesRawValues(t *testing.T) {
	// Values enter the signed string verbatim, never URL-encoded
	params := url.Values{}
	params.Set("symbol", "BTC USD")

	assert.Equal(t, "symbol=BTC USD", CanonicalQueryString(params))
}

func TestCanonicalQueryStringEmpty(t *testing.T) {
	assert.Equal(t, "", CanonicalQueryString(url.Values{}))
}

func TestSignMatchesHMACOfCanonicalString(t *testing.T) {
	params := url.Values{}
	params.Set("api_key", "abc")
	params.Set("symbol", "BTCUSD")
	params.Set("timestamp", "1700000000000")

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte("api_key=abc&symbol=BTCUSD&timestamp=1700000000000"))
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, Sign(params, "test-secret"))
}

func TestSignIsDeterministic(t *testing.T) {
	params := url.Values{}
	params.Set("symbol", "ETHUSD")
	params.Set("interval", "1D")

	assert.Equal(t, Sign(params, "s1"), Sign(params, "s1"))
	assert.NotEqual(t, Sign(params, "s1"), Sign(params, "s2"))
}

func TestSignInsertionOrderIrrelevant(t *testing.T) {
	a := url.Values{}
	a.Set("symbol", "BTCUSD")
	a.Set("api_key", "abc")

	b := url.Values{}
	b.Set("api_key", "abc")
	b.Set("symbol", "BTCUSD")

	assert.Equal(t, Sign(a, "secret"), Sign(b, "secret"))
}
