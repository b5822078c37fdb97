package util

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256Hex(t *testing.T) {
	// RFC 4231 test case 2
	assert.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		HMACSHA256Hex("Jefe", "what do ya want for nothing?"))
}

func TestExportToken(t *testing.T) {
	tok := ExportToken("s3cret", "2024-05-01")
	assert.True(t, ValidExportToken("s3cret", "2024-05-01", tok))
	assert.False(t, ValidExportToken("s3cret", "2024-05-02", tok))
	assert.False(t, ValidExportToken("other", "2024-05-01", tok))
	assert.False(t, ValidExportToken("s3cret", "2024-05-01", ""))
	assert.False(t, ValidExportToken("", "2024-05-01", ExportToken("", "2024-05-01")))
}

func TestExportURL(t *testing.T) {
	assert.Empty(t, ExportURL("", "s", "2024-05-01"))
	assert.Empty(t, ExportURL("https://taxi.example", "", "2024-05-01"))

	raw := ExportURL("https://taxi.example", "s", "2024-05-01")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/export/day.csv", u.Path)
	assert.Equal(t, "2024-05-01", u.Query().Get("day"))
	assert.Equal(t, ExportToken("s", "2024-05-01"), u.Query().Get("token"))
}

func TestNowISO(t *testing.T) {
	_, err := time.Parse(time.RFC3339, NowISO())
	assert.NoError(t, err)
}
