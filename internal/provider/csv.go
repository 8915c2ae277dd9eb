package provider

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/drakos74/impulse/internal/model"
	"github.com/rs/zerolog/log"
)

// DefaultMaxRows limits the rows loaded from a single file.
const DefaultMaxRows = 500_000

var (
	// ErrMissingColumn is returned when a required column is not in the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNoRows is returned when no row could be parsed.
	ErrNoRows = errors.New("no valid rows after parsing")
)

// Columns are the required columns of a transaction file.
var Columns = []string{
	"card_id",
	"purchase_date",
	"purchase_amount",
	"category_1",
	"category_2",
	"category_3",
}

const authorizedColumn = "authorized_flag"

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	model.DateFormat,
}

// Options configures the csv loading.
type Options struct {
	MaxRows int
}

// LoadFile loads the transactions of the csv file at the given path.
func LoadFile(path string, opts Options) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open dataset '%s': %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}

// LoadCSV parses the transactions from a csv stream.
// Rows with unparseable dates are dropped, unparseable amounts count as 0.
func LoadCSV(r io.Reader, opts Options) ([]model.Transaction, error) {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	missing := make([]string, 0)
	for _, c := range Columns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}
	authorized, hasAuthorized := index[authorizedColumn]

	field := func(record []string, column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	txs := make([]model.Transaction, 0)
	var dropped, badAmounts, line int
	for len(txs) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("could not read line %d: %w", line, err)
		}
		t, ok := parseTime(field(record, "purchase_date"))
		if !ok {
			dropped++
			continue
		}
		amount, err := strconv.ParseFloat(field(record, "purchase_amount"), 64)
		if err != nil {
			badAmounts++
			amount = 0
		}
		tx := model.Transaction{
			CardID:     field(record, "card_id"),
			Time:       t,
			Amount:     amount,
			Category1:  field(record, "category_1"),
			Category2:  field(record, "category_2"),
			Category3:  field(record, "category_3"),
			Authorized: true,
		}
		if hasAuthorized && authorized < len(record) {
			tx.Authorized = parseFlag(record[authorized])
		}
		txs = append(txs, tx)
	}

	log.Info().
		Int("rows", len(txs)).
		Int("dropped", dropped).
		Int("bad_amounts", badAmounts).
		Int("max_rows", maxRows).
		Msg("loaded transactions")

	if len(txs) == 0 {
		return nil, ErrNoRows
	}
	return txs, nil
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "FALSE", "0", "NO":
		return false
	}
	return true
}
