package matcher

import (
	"context"
	"sync"

	"storesync/internal/services/ironpay"
)

// Lister is the part of the gateway client the snapshot needs.
type Lister interface {
	ListProducts(ctx context.Context) ([]ironpay.RemoteProduct, error)
}

// Snapshot is a view of the gateway catalog fetched at most once. A new
// snapshot is taken per reconcile or checkout build; it is never shared
// across requests.
type Snapshot struct {
	lister Lister

	once     sync.Once
	products []ironpay.RemoteProduct
	err      error
}

func NewSnapshot(lister Lister) *Snapshot {
	return &Snapshot{lister: lister}
}

// StaticSnapshot wraps an already fetched product list.
func StaticSnapshot(products []ironpay.RemoteProduct) *Snapshot {
	s := &Snapshot{products: products}
	s.once.Do(func() {})
	return s
}

// Products lists the gateway catalog on first use and replays the result
// (including an error) afterwards.
func (s *Snapshot) Products(ctx context.Context) ([]ironpay.RemoteProduct, error) {
	s.once.Do(func() {
		s.products, s.err = s.lister.ListProducts(ctx)
	})
	return s.products, s.err
}
