package bill

import (
	"context"
	"sort"
)

// Lister retrieves the current user's expense records and shapes them for
// display. It holds no state between calls.
type Lister struct {
	store  Store
	format Formatter
}

func NewLister(store Store, format Formatter) *Lister {
	if format == nil {
		format = FrenchFormatter{}
	}
	return &Lister{store: store, format: format}
}

// FetchAll lists the records, formats date and status per record, and
// returns them most recent first. A formatting failure on one field keeps
// the raw value instead of dropping the record, so the output always has
// the same length as the store's response. Store failures propagate
// unchanged.
func (l *Lister) FetchAll(ctx context.Context) ([]DisplayBill, error) {
	raw, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DisplayBill, 0, len(raw))
	for _, b := range raw {
		out = append(out, DisplayBill{
			ID:         b.ID,
			Email:      b.Email,
			Type:       b.Type,
			Name:       b.Name,
			Date:       formatOr(b.Date, l.format.FormatDate),
			Amount:     b.Amount,
			VAT:        b.VAT,
			Pct:        b.Pct,
			Commentary: b.Commentary,
			FileURL:    b.FileURL,
			FileName:   b.FileName,
			Status: formatOr(string(b.Status), func(s string) (string, error) {
				return l.format.FormatStatus(Status(s))
			}),
		})
	}

	// Plain string comparison on the display date, as the original table
	// sorts. Ordering is only meaningful while all dates share one
	// representation.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})

	return out, nil
}
