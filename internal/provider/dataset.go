package provider

import (
	"context"
	"sort"
	"time"

	"github.com/drakos74/impulse/internal/model"
)

// Dataset is an immutable set of transactions grouped by card.
type Dataset struct {
	ID           string                         `json:"dataset_id"`
	Rows         int                            `json:"rows"`
	Users        int                            `json:"users"`
	Range        model.DateRange                `json:"date_range"`
	Cards        []string                       `json:"-"`
	Transactions map[string][]model.Transaction `json:"-"`
}

// NewDataset groups the transactions by card, in chronological order.
func NewDataset(id string, txs []model.Transaction) *Dataset {
	d := &Dataset{
		ID:           id,
		Rows:         len(txs),
		Cards:        make([]string, 0),
		Transactions: make(map[string][]model.Transaction),
	}
	var from, to time.Time
	for i, tx := range txs {
		if _, ok := d.Transactions[tx.CardID]; !ok {
			d.Cards = append(d.Cards, tx.CardID)
		}
		d.Transactions[tx.CardID] = append(d.Transactions[tx.CardID], tx)
		if i == 0 || tx.Time.Before(from) {
			from = tx.Time
		}
		if i == 0 || tx.Time.After(to) {
			to = tx.Time
		}
	}
	if len(txs) > 0 {
		d.Range = model.NewDateRange(from, to)
	}
	sort.Strings(d.Cards)
	for _, card := range d.Cards {
		cardTxs := d.Transactions[card]
		sort.SliceStable(cardTxs, func(i, j int) bool {
			return cardTxs[i].Time.Before(cardTxs[j].Time)
		})
	}
	d.Users = len(d.Cards)
	return d
}

// Provider gives access to datasets by id.
type Provider interface {
	Dataset(ctx context.Context, id string) (*Dataset, error)
}
