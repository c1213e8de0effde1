package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLineItem is one line of a table's cart. UnitPrice is fixed when the
// line is first added and never re-derived from the catalog.
type CartLineItem struct {
	LineKey           string            `json:"lineKey"`
	MenuID            int64             `json:"menuId"`
	Name              string            `json:"name"`
	UnitImage         string            `json:"unitImage,omitempty"`
	UnitPrice         decimal.Decimal   `json:"unitPrice"`
	Quantity          int               `json:"quantity"`
	SelectedOptions   map[string]string `json:"selectedOptions"`
	SelectedOptionIDs []int64           `json:"selectedOptionIds"`
	LineTotal         decimal.Decimal   `json:"lineTotal"`
}

// Recalculate refreshes LineTotal from the stored UnitPrice
func (li *CartLineItem) Recalculate() {
	li.LineTotal = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is the snapshot returned to callers
type Cart struct {
	Scope          Scope           `json:"scope"`
	Items          []CartLineItem  `json:"items"`
	TotalItems     int             `json:"totalItems"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	FormattedTotal string          `json:"formattedTotal,omitempty"`
}

// NewCart builds a snapshot and its derived totals
func NewCart(scope Scope, items []CartLineItem) Cart {
	cart := Cart{Scope: scope, Items: make([]CartLineItem, 0, len(items)), TotalAmount: decimal.Zero}
	for _, item := range items {
		cart.Items = append(cart.Items, item.Clone())
		cart.TotalItems += item.Quantity
		cart.TotalAmount = cart.TotalAmount.Add(item.LineTotal)
	}
	return cart
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone deep copies the line so snapshots never share maps with the store
func (li CartLineItem) Clone() CartLineItem {
	out := li
	if li.SelectedOptions != nil {
		out.SelectedOptions = make(map[string]string, len(li.SelectedOptions))
		for k, v := range li.SelectedOptions {
			out.SelectedOptions[k] = v
		}
	}
	if li.SelectedOptionIDs != nil {
		out.SelectedOptionIDs = append([]int64(nil), li.SelectedOptionIDs...)
	}
	return out
}

// NormalizeOptionIDs sorts and de-duplicates option ids
func NormalizeOptionIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LineKey is the order-independent identity of a menu with a selection.
// Options and ids are expected to be normalized already.
func LineKey(menuID int64, options map[string]string, ids []int64) string {
	groups := make([]string, 0, len(options))
	for group := range options {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	var b strings.Builder
	b.WriteString(strconv.FormatInt(menuID, 10))
	b.WriteByte('|')
	for _, group := range groups {
		writeField(&b, group)
		writeField(&b, options[group])
	}
	b.WriteByte('|')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// writeField length-prefixes s so names containing separators cannot
// collide with a different selection.
func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
