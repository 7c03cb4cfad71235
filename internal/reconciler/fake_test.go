package reconciler

import (
	"context"
	"fmt"
	"sync"

	"storesync/internal/services/ironpay"
)

// fakeCatalog is an in-memory gateway that records every call.
type fakeCatalog struct {
	mu sync.Mutex

	products []ironpay.RemoteProduct

	listErr   error
	createErr error
	updateErr error
	offerErr  error

	listCalls    int
	createCalls  []ironpay.ProductPayload
	updateCalls  []string
	offerCalls   []string
	offerPayload []ironpay.OfferPayload
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]ironpay.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]ironpay.RemoteProduct(nil), f.products...), nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, payload ironpay.ProductPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, payload)
	if f.createErr != nil {
		return "", f.createErr
	}
	hash := fmt.Sprintf("prod-%d", len(f.createCalls))
	f.products = append(f.products, ironpay.RemoteProduct{Hash: hash, Title: payload.Title, SalePage: payload.SalePage})
	return hash, nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, productHash string, payload ironpay.ProductUpdatePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, productHash)
	return f.updateErr
}

func (f *fakeCatalog) CreateOffer(ctx context.Context, productHash string, payload ironpay.OfferPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offerCalls = append(f.offerCalls, productHash)
	f.offerPayload = append(f.offerPayload, payload)
	if f.offerErr != nil {
		return "", f.offerErr
	}
	return fmt.Sprintf("offer-%d", len(f.offerCalls)), nil
}
