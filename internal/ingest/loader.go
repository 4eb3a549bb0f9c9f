// Package ingest reads raw backtest trade logs and turns them into validated
// trade records.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor Parquet.
var ErrUnsupportedFormat = errors.New("unsupported trade log format")

// Column names expected in the trade log.
const (
	ColumnSymbol    = "symbol"
	ColumnOpenTime  = "open_datetime"
	ColumnCloseTime = "close_datetime"
	ColumnOrderType = "order_type"
	ColumnProfit    = "profit"
	ColumnVolume    = "volume"
)

// RawTrade is one row of the trade log before validation.
// Timestamps stay textual so Normalize decides how to read them.
type RawTrade struct {
	Row       int // 1-based data row
	Symbol    string
	OpenTime  string
	CloseTime string
	OrderType string
	Profit    optional.Option[float64] // None when empty or not numeric
	Volume    optional.Option[float64]
}

// Loader reads trade logs through an in-memory DuckDB.
type Loader struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLoader opens an in-memory DuckDB instance.
func NewLoader(logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Loader{db: db, logger: logger}, nil
}

// Close releases the DuckDB instance.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Load reads every row of a CSV or Parquet trade log in file order.
func (l *Loader) Load(ctx context.Context, path string) ([]RawTrade, error) {
	source, err := sourceExpr(path)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			CAST(%s AS VARCHAR),
			CAST(%s AS VARCHAR),
			CAST(%s AS VARCHAR),
			CAST(%s AS VARCHAR),
			TRY_CAST(%s AS DOUBLE),
			TRY_CAST(%s AS DOUBLE)
		FROM %s`,
		ColumnSymbol, ColumnOpenTime, ColumnCloseTime, ColumnOrderType,
		ColumnProfit, ColumnVolume, source)

	l.logger.Debug("reading trade log", zap.String("path", path))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trade log %s: %w", path, err)
	}
	defer rows.Close()

	var result []RawTrade
	for rows.Next() {
		var (
			symbol, openTime, closeTime, orderType sql.NullString
			profit, volume                         sql.NullFloat64
		)
		if err := rows.Scan(&symbol, &openTime, &closeTime, &orderType, &profit, &volume); err != nil {
			return nil, fmt.Errorf("scan trade log row %d: %w", len(result)+1, err)
		}
		result = append(result, RawTrade{
			Row:       len(result) + 1,
			Symbol:    strings.TrimSpace(symbol.String),
			OpenTime:  strings.TrimSpace(openTime.String),
			CloseTime: strings.TrimSpace(closeTime.String),
			OrderType: strings.TrimSpace(orderType.String),
			Profit:    nullFloat(profit),
			Volume:    nullFloat(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trade log %s: %w", path, err)
	}

	l.logger.Info("trade log read", zap.String("path", path), zap.Int("rows", len(result)))
	return result, nil
}

func sourceExpr(path string) (string, error) {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		// Timestamps stay text so offsets reach ParseTime unconverted
		return fmt.Sprintf("read_csv_auto(%s, header = true, all_varchar = true)", quoted), nil
	case ".parquet", ".pq":
		return fmt.Sprintf("read_parquet(%s)", quoted), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func nullFloat(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}
	return optional.Some(v.Float64)
}
