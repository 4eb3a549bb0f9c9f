package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ComputeRunID computes a run_id over the inputs of an analysis run.
// Trade IDs are sorted first so input order does not matter.
// Returns the first 16 hex characters of SHA256.
func ComputeRunID(
	tradeIDs []string,
	riskPerTrade float64,
	simulations int,
	nTrades int,
	seed uint64,
	createdAtMs int64,
) string {
	ids := make([]string, len(tradeIDs))
	copy(ids, tradeIDs)
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte("TRADES\n"))
	h.Write([]byte(strings.Join(ids, "\n")))
	h.Write([]byte(fmt.Sprintf("\nRUN\n%s|%d|%d|%d|%d",
		strconv.FormatFloat(riskPerTrade, 'g', -1, 64),
		simulations, nTrades, seed, createdAtMs)))

	return hex.EncodeToString(h.Sum(nil))[:16]
}
