package cart

import (
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/shopspring/decimal"
)

// Entry is one product line in the cart. The product is snapshotted when it
// is first added, so later catalog price changes do not reach existing lines.
type Entry struct {
	ProductID int64           `json:"productId"`
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"addedAt"`
}

// LineTotal is price times quantity.
func (e Entry) LineTotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Ledger holds at most one entry per product id.
type Ledger []Entry

// Add upserts product, summing quantity into an existing entry.
func (l *Ledger) Add(product catalog.Product, quantity int, now time.Time) {
	for i := range *l {
		if (*l)[i].ProductID == product.ID {
			(*l)[i].Quantity += quantity
			return
		}
	}
	*l = append(*l, Entry{
		ProductID: product.ID,
		Product:   product,
		Quantity:  quantity,
		AddedAt:   now,
	})
}

// Remove drops the entry for productID if present.
func (l *Ledger) Remove(productID int64) {
	out := (*l)[:0]
	for _, e := range *l {
		if e.ProductID != productID {
			out = append(out, e)
		}
	}
	*l = out
}

// SetQuantity overwrites the quantity of an existing entry. It reports whether
// the product was in the ledger.
func (l *Ledger) SetQuantity(productID int64, quantity int) bool {
	for i := range *l {
		if (*l)[i].ProductID == productID {
			(*l)[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	*l = Ledger{}
}

// Total sums every line. An empty ledger totals zero.
func (l Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l {
		total = total.Add(e.LineTotal())
	}
	return total
}

// Count is the number of units across all lines.
func (l Ledger) Count() int {
	count := 0
	for _, e := range l {
		count += e.Quantity
	}
	return count
}

// Contains reports whether productID has an entry.
func (l Ledger) Contains(productID int64) bool {
	for _, e := range l {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

// Clone deep-copies the ledger so snapshots do not share product pointers.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for i, e := range l {
		if e.Product.OriginalPrice != nil {
			was := *e.Product.OriginalPrice
			e.Product.OriginalPrice = &was
		}
		out[i] = e
	}
	return out
}
