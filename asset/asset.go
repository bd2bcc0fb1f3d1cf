package asset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// String implements the stringer interface
func (i Item) String() string {
	return fmt.Sprintf("%s(%d)", i.Symbol, i.SID)
}

// IsEmpty returns whether the item is the zero value
func (i Item) IsEmpty() bool {
	return i.SID == 0 && i.Symbol == ""
}

// IsAlive reports whether the asset can still be traded at t
func (i Item) IsAlive(t time.Time) bool {
	return i.AutoCloseDate.IsZero() || t.Before(i.AutoCloseDate)
}

// Validate checks the item is usable
func (i *Item) Validate() error {
	if i.SID <= 0 {
		return fmt.Errorf("%w: %d", errInvalidSID, i.SID)
	}
	if strings.TrimSpace(i.Symbol) == "" {
		return errEmptySymbol
	}
	if i.TickSize.IsNegative() {
		return fmt.Errorf("%v %w", i, errNegativeTick)
	}
	return nil
}

// NewFinder builds a finder from the supplied items
func NewFinder(items ...Item) (*Finder, error) {
	f := &Finder{
		bySID:    make(map[int64]Item, len(items)),
		bySymbol: make(map[string]int64, len(items)),
	}
	for x := range items {
		if err := f.Add(items[x]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Add registers an asset
func (f *Finder) Add(i Item) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if _, ok := f.bySID[i.SID]; ok {
		return fmt.Errorf("%w: %d", errDuplicateSID, i.SID)
	}
	sym := strings.ToUpper(i.Symbol)
	if _, ok := f.bySymbol[sym]; ok {
		return fmt.Errorf("%w: %s", errDuplicateSymbol, i.Symbol)
	}
	f.bySID[i.SID] = i
	f.bySymbol[sym] = i.SID
	return nil
}

// Lookup returns the asset registered under sid
func (f *Finder) Lookup(sid int64) (Item, error) {
	i, ok := f.bySID[sid]
	if !ok {
		return Item{}, fmt.Errorf("%w: sid %d", ErrUnknownAsset, sid)
	}
	return i, nil
}

// LookupSymbol returns the asset registered under the case-insensitive symbol
func (f *Finder) LookupSymbol(symbol string) (Item, error) {
	sid, ok := f.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
	}
	return f.bySID[sid], nil
}

// Exists reports whether the exact asset is registered
func (f *Finder) Exists(i Item) bool {
	if f == nil {
		return false
	}
	registered, ok := f.bySID[i.SID]
	return ok && registered.Symbol == i.Symbol
}

// All returns every registered asset ordered by sid
func (f *Finder) All() []Item {
	resp := make([]Item, 0, len(f.bySID))
	for _, i := range f.bySID {
		resp = append(resp, i)
	}
	sort.Slice(resp, func(a, b int) bool { return resp[a].SID < resp[b].SID })
	return resp
}
