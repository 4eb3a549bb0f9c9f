package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(symbol|order_type|open_ms|close_ms|volume|profit|occurrence)
// occurrence distinguishes otherwise identical rows of the same log
// (0 for the first one). Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	symbol string,
	orderType string,
	openTimeMs int64,
	closeTimeMs int64,
	volume float64,
	profit float64,
	occurrence int,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s|%s|%d",
		symbol,
		orderType,
		openTimeMs,
		closeTimeMs,
		strconv.FormatFloat(volume, 'g', -1, 64),
		strconv.FormatFloat(profit, 'g', -1, 64),
		occurrence,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
