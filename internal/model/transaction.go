package model

import (
	"fmt"
	"time"
)

// Transaction is a single card purchase.
type Transaction struct {
	CardID     string    `json:"card_id"`
	Time       time.Time `json:"purchase_date"`
	Amount     float64   `json:"purchase_amount"`
	Category1  string    `json:"category_1"`
	Category2  string    `json:"category_2"`
	Category3  string    `json:"category_3"`
	Authorized bool      `json:"authorized_flag"`
}

// CategoryKey is the combined category label of the transaction.
func (t Transaction) CategoryKey() string {
	return fmt.Sprintf("%s/%s/%s", orUnknown(t.Category1), orUnknown(t.Category2), orUnknown(t.Category3))
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// DateRange is the first and last day of a set of transactions.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewDateRange creates a date range from the given times.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{
		From: from.UTC().Format(DateFormat),
		To:   to.UTC().Format(DateFormat),
	}
}

// DateFormat is the layout used for all calendar days.
const DateFormat = "2006-01-02"

// User is the summary of one card in a dataset.
type User struct {
	CardID    string    `json:"card_id"`
	TxCount   int       `json:"tx_count"`
	DateRange DateRange `json:"date_range"`
	Score     int       `json:"risk_score"`
	Band      Band      `json:"risk_band"`
}
