package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CanonicalQueryString builds the string to sign: every parameter rendered as
// key=value, sorted lexicographically by key, joined with '&'. Values are used
// verbatim, not URL-encoded.
func CanonicalQueryString(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}
	return strings.Join(pairs, "&")
}

// Sign computes the hex HMAC-SHA256 signature of the canonical query string
// keyed by the account secret. For fixed params and secret the output is
// reproducible byte-for-byte.
func Sign(params url.Values, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalQueryString(params)))
	return hex.EncodeToString(mac.Sum(nil))
}
