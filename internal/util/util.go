package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"
)

func NowISO() string {
	return time.Now().Format(time.RFC3339)
}

func HMACSHA256Hex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// ExportToken signs a day for the CSV export link.
func ExportToken(secret, day string) string {
	return HMACSHA256Hex(secret, "export:"+day)
}

// ValidExportToken compares in constant time. An empty secret accepts
// nothing.
func ValidExportToken(secret, day, token string) bool {
	if secret == "" {
		return false
	}
	return hmac.Equal([]byte(ExportToken(secret, day)), []byte(token))
}

// ExportURL is the public link of a day's CSV, empty without a base URL or
// a secret.
func ExportURL(base, secret, day string) string {
	if base == "" || secret == "" {
		return ""
	}
	q := url.Values{}
	q.Set("day", day)
	q.Set("token", ExportToken(secret, day))
	return base + "/export/day.csv?" + q.Encode()
}
