package pos

import (
	"context"
	"fmt"
	"time"

	"pos-backend/internal/store"
)

// Document prefixes.
const (
	PrefixInvoice  = "INV"
	PrefixPurchase = "PO"
	PrefixReturn   = "RET"
)

// nextDocumentNo returns PREFIX-YYYYMMDD-NNNN where NNNN follows the number
// of documents already dated day in table.
func (s *Service) nextDocumentNo(ctx context.Context, table, prefix string, day time.Time) (string, error) {
	rows, err := s.store.Select(ctx, table, store.SelectOptions{Where: store.Where{"date": day.Format("2006-01-02")}})
	if err != nil {
		return "", fmt.Errorf("number %s document: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), len(rows)+1), nil
}
