package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Reserved signature fields of the VNPay protocol. Both are removed
// before verification; only SecureHashField is ever produced.
const (
	SecureHashField     = "vnp_SecureHash"
	SecureHashTypeField = "vnp_SecureHashType"
)

// Canonicalize serializes a flat parameter map the way the gateway hashes
// it: keys with empty values are dropped, the rest are sorted by byte
// value and joined as key=value pairs with form URL encoding. Form
// encoding (space as '+', not %20) is part of the wire contract; any
// other encoding yields a signature the gateway rejects.
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// Sign computes the lowercase hex HMAC-SHA512 of the canonicalized
// parameter set under the merchant secret.
func Sign(params map[string]string, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(Canonicalize(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedQuery returns the canonical query string with the secure hash
// appended, ready to be attached to the gateway base URL.
func SignedQuery(params map[string]string, secret string) string {
	return Canonicalize(params) + "&" + SecureHashField + "=" + Sign(params, secret)
}

// Verify recomputes the signature over params (with the reserved hash
// fields stripped) and compares it to the provided one in constant time.
// Malformed input never panics, it simply fails verification.
func Verify(params map[string]string, providedSignature, secret string) bool {
	if providedSignature == "" {
		return false
	}

	stripped := make(map[string]string, len(params))
	for k, v := range params {
		if k == SecureHashField || k == SecureHashTypeField {
			continue
		}
		stripped[k] = v
	}

	expected := Sign(stripped, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(providedSignature)))
}
