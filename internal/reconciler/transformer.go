package reconciler

import (
	"strings"

	"storesync/internal/matcher"
	"storesync/internal/models"
	"storesync/internal/money"
	"storesync/internal/services/ironpay"
)

// Transformer converts local products into gateway payloads.
type Transformer struct {
	storeBaseURL      string
	categories        map[string]int
	defaultCategoryID int
}

func NewTransformer(cfg Config) *Transformer {
	categories := make(map[string]int, len(cfg.Categories))
	for name, id := range cfg.Categories {
		categories[strings.ToLower(strings.TrimSpace(name))] = id
	}

	defaultCategoryID := cfg.DefaultCategoryID
	if defaultCategoryID == 0 {
		defaultCategoryID = 1
	}

	return &Transformer{
		storeBaseURL:      cfg.StoreBaseURL,
		categories:        categories,
		defaultCategoryID: defaultCategoryID,
	}
}

// CategoryID maps a storefront category to the gateway category id.
func (t *Transformer) CategoryID(category string) int {
	if id, ok := t.categories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return id
	}
	return t.defaultCategoryID
}

// ToProductPayload builds the create body for p.
func (t *Transformer) ToProductPayload(p *models.Product) ironpay.ProductPayload {
	return ironpay.ProductPayload{
		Title:        p.Name,
		Cover:        p.ImageURL,
		SalePage:     matcher.SalePageURL(t.storeBaseURL, p.ID),
		PaymentType:  ironpay.PaymentTypeSingle,
		ProductType:  ironpay.ProductTypePhysical,
		DeliveryType: ironpay.DeliveryTypeShipping,
		CategoryID:   t.CategoryID(p.Category),
		Amount:       money.ToMinor(p.Price),
	}
}

// ToUpdatePayload builds the update body for p.
func (t *Transformer) ToUpdatePayload(p *models.Product) ironpay.ProductUpdatePayload {
	return ironpay.ProductUpdatePayload{
		Title:      p.Name,
		Cover:      p.ImageURL,
		SalePage:   matcher.SalePageURL(t.storeBaseURL, p.ID),
		CategoryID: t.CategoryID(p.Category),
		Amount:     money.ToMinor(p.Price),
	}
}

// ToOfferPayload builds the main offer for p at its current price.
func (t *Transformer) ToOfferPayload(p *models.Product) ironpay.OfferPayload {
	return ironpay.OfferPayload{
		Title:  p.Name + " - Oferta Principal",
		Cover:  p.ImageURL,
		Amount: money.ToMinor(p.Price),
	}
}
