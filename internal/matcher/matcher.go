// Package matcher decides whether a local product already has a counterpart
// in the gateway catalog.
//
// Resolution order: cached linkage, then sale page URL, then title. Title
// matching takes the first hit in the gateway's list order, which the gateway
// does not specify, so two remote products sharing a title resolve
// nondeterministically across gateway versions.
package matcher

import (
	"context"
	"strings"

	"storesync/internal/models"
	"storesync/internal/services/ironpay"
)

type Matcher struct {
	storeBaseURL string
}

func New(storeBaseURL string) *Matcher {
	return &Matcher{storeBaseURL: storeBaseURL}
}

// SalePageURL is the storefront page for a product id; the gateway keeps it
// as a stable key between syncs.
func SalePageURL(storeBaseURL, productID string) string {
	return strings.TrimRight(storeBaseURL, "/") + "/produto/" + productID
}

func (m *Matcher) SalePage(productID string) string {
	return SalePageURL(m.storeBaseURL, productID)
}

// Resolve returns the gateway product hash for local. A cached hash is
// trusted as-is and the snapshot is not consulted.
func (m *Matcher) Resolve(ctx context.Context, local *models.Product, snap *Snapshot) (string, bool, error) {
	if hash := local.CachedRemoteProductID(); hash != "" {
		return hash, true, nil
	}

	remote, found, err := m.Find(ctx, local.ID, local.Name, snap)
	if err != nil || !found {
		return "", false, err
	}
	return remote.Hash, true, nil
}

// Find looks a product up in the snapshot by sale page, then by title.
func (m *Matcher) Find(ctx context.Context, productID, name string, snap *Snapshot) (ironpay.RemoteProduct, bool, error) {
	products, err := snap.Products(ctx)
	if err != nil {
		return ironpay.RemoteProduct{}, false, err
	}

	salePage := normalize(m.SalePage(productID))
	for _, p := range products {
		if p.SalePage != "" && normalize(p.SalePage) == salePage {
			return p, true, nil
		}
	}

	if title := normalize(name); title != "" {
		for _, p := range products {
			if normalize(p.Title) == title {
				return p, true, nil
			}
		}
	}

	return ironpay.RemoteProduct{}, false, nil
}

// FirstOffer returns the hash of the product's first offer, or "".
func FirstOffer(p ironpay.RemoteProduct) string {
	for _, o := range p.Offers {
		if o.Hash != "" {
			return o.Hash
		}
	}
	return ""
}

// FindForDeletion looks for a gateway product whose title equals or
// contains name. Comparison is case-sensitive.
func FindForDeletion(products []ironpay.RemoteProduct, name string) (ironpay.RemoteProduct, bool) {
	if name == "" {
		return ironpay.RemoteProduct{}, false
	}
	for _, p := range products {
		if p.Title == name || strings.Contains(p.Title, name) {
			return p, true
		}
	}
	return ironpay.RemoteProduct{}, false
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
