// Package reconciler keeps a local product and its gateway product+offer in
// step. The gateway has no transactions and no delete endpoint, so every
// operation is at-least-once: a failure after a successful create leaves the
// remote product behind, and the next update picks it up again by sale page.
package reconciler

import (
	"context"
	"errors"
	"fmt"

	"storesync/internal/logger"
	"storesync/internal/matcher"
	"storesync/internal/metrics"
	"storesync/internal/models"
	"storesync/internal/services/ironpay"
)

const (
	MessageFoundForDeletion = "product found for deletion"
	MessageDeletionRecorded = "deletion recorded"
)

// RemoteCatalog is the gateway surface the reconciler drives.
type RemoteCatalog interface {
	ListProducts(ctx context.Context) ([]ironpay.RemoteProduct, error)
	CreateProduct(ctx context.Context, payload ironpay.ProductPayload) (string, error)
	UpdateProduct(ctx context.Context, productHash string, payload ironpay.ProductUpdatePayload) error
	CreateOffer(ctx context.Context, productHash string, payload ironpay.OfferPayload) (string, error)
}

type Config struct {
	StoreBaseURL      string
	Categories        map[string]int
	DefaultCategoryID int
}

// SyncResult is the outcome of one reconciliation. For create and update it
// holds either both remote ids or an error. Delete always succeeds and only
// reports what it found.
type SyncResult struct {
	Success           bool   `json:"success"`
	RemoteProductID   string `json:"ironpay_product_hash,omitempty"`
	RemoteOfferID     string `json:"ironpay_offer_hash,omitempty"`
	Error             string `json:"error,omitempty"`
	Message           string `json:"message,omitempty"`
	DeletionCandidate string `json:"deletion_candidate,omitempty"`
}

type Reconciler struct {
	catalog     RemoteCatalog
	matcher     *matcher.Matcher
	transformer *Transformer
	logger      *logger.Logger
}

func New(catalog RemoteCatalog, cfg Config, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		catalog:     catalog,
		matcher:     matcher.New(cfg.StoreBaseURL),
		transformer: NewTransformer(cfg),
		logger:      logger,
	}
}

// Sync dispatches on action.
func (r *Reconciler) Sync(ctx context.Context, action models.SyncAction, p *models.Product) SyncResult {
	switch action {
	case models.SyncActionCreate:
		// A redelivered create finds the product already linked.
		if p.CachedRemoteProductID() != "" {
			r.logger.Info("Product %s already linked to %s, updating instead of creating", p.ID, p.CachedRemoteProductID())
			return r.Update(ctx, p)
		}
		return r.Create(ctx, p)
	case models.SyncActionUpdate:
		return r.Update(ctx, p)
	case models.SyncActionDelete:
		return r.Delete(ctx, p)
	default:
		return SyncResult{Error: fmt.Sprintf("unknown sync action %q", action)}
	}
}

// Create makes a new gateway product and its main offer.
func (r *Reconciler) Create(ctx context.Context, p *models.Product) SyncResult {
	result := r.create(ctx, p)
	metrics.ObserveSync(string(models.SyncActionCreate), result.Success)
	return result
}

// Update pushes p to its gateway counterpart and opens a fresh offer at the
// current price. A refused update, or no counterpart at all, falls back to
// a full create.
func (r *Reconciler) Update(ctx context.Context, p *models.Product) SyncResult {
	result := r.update(ctx, p)
	metrics.ObserveSync(string(models.SyncActionUpdate), result.Success)
	return result
}

// Delete only looks the product up: the gateway cannot delete products, so
// the outcome is advisory and always successful.
func (r *Reconciler) Delete(ctx context.Context, p *models.Product) SyncResult {
	result := r.delete(ctx, p)
	metrics.ObserveSync(string(models.SyncActionDelete), result.Success)
	return result
}

// CreateRemote runs the create path and returns both hashes.
func (r *Reconciler) CreateRemote(ctx context.Context, p *models.Product) (string, string, error) {
	productHash, err := r.catalog.CreateProduct(ctx, r.transformer.ToProductPayload(p))
	if err != nil {
		return "", "", fmt.Errorf("create product: %w", err)
	}

	r.logger.Debug("Created IronPay product %s for %s, creating offer", productHash, p.ID)

	offerHash, err := r.CreateOffer(ctx, productHash, p)
	if err != nil {
		r.logger.Warn("IronPay product %s exists without an offer: %v", productHash, err)
		return "", "", err
	}

	return productHash, offerHash, nil
}

// CreateOffer opens a main offer for p on an existing gateway product.
func (r *Reconciler) CreateOffer(ctx context.Context, productHash string, p *models.Product) (string, error) {
	offerHash, err := r.catalog.CreateOffer(ctx, productHash, r.transformer.ToOfferPayload(p))
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	return offerHash, nil
}

func (r *Reconciler) create(ctx context.Context, p *models.Product) SyncResult {
	productHash, offerHash, err := r.CreateRemote(ctx, p)
	if err != nil {
		return r.failed(p, models.SyncActionCreate, err)
	}
	return synced(productHash, offerHash)
}

func (r *Reconciler) update(ctx context.Context, p *models.Product) SyncResult {
	productHash, found, err := r.matcher.Resolve(ctx, p, matcher.NewSnapshot(r.catalog))
	if err != nil {
		return r.failed(p, models.SyncActionUpdate, fmt.Errorf("list products: %w", err))
	}

	if !found {
		r.logger.Info("No IronPay product for %s (%s), falling back to create", p.ID, p.Name)
		metrics.ObserveFallback("not_found")
		return r.create(ctx, p)
	}

	if err := r.catalog.UpdateProduct(ctx, productHash, r.transformer.ToUpdatePayload(p)); err != nil {
		if !ironpay.IsRemoteError(err) {
			return r.failed(p, models.SyncActionUpdate, fmt.Errorf("update product: %w", err))
		}
		r.logger.Warn("IronPay update of %s failed (%v), falling back to create", productHash, err)
		metrics.ObserveFallback("update_refused")
		return r.create(ctx, p)
	}

	offerHash, err := r.CreateOffer(ctx, productHash, p)
	if err != nil {
		return r.failed(p, models.SyncActionUpdate, err)
	}

	return synced(productHash, offerHash)
}

func (r *Reconciler) delete(ctx context.Context, p *models.Product) SyncResult {
	products, err := r.catalog.ListProducts(ctx)
	if err != nil {
		r.logger.Warn("Could not list IronPay products while deleting %s: %v", p.ID, err)
		return SyncResult{Success: true, Message: MessageDeletionRecorded}
	}

	if remote, ok := matcher.FindForDeletion(products, p.Name); ok {
		r.logger.Info("Found IronPay product %s for deleted product %s", remote.Hash, p.ID)
		return SyncResult{Success: true, Message: MessageFoundForDeletion, DeletionCandidate: remote.Hash}
	}

	return SyncResult{Success: true, Message: MessageDeletionRecorded}
}

func (r *Reconciler) failed(p *models.Product, action models.SyncAction, err error) SyncResult {
	r.logger.Error("IronPay %s sync of product %s failed: %v", action, p.ID, err)

	message := err.Error()
	var re *ironpay.RemoteError
	if errors.As(err, &re) {
		message = re.Message
	}
	return SyncResult{Error: message}
}

func synced(productHash, offerHash string) SyncResult {
	return SyncResult{
		Success:         true,
		RemoteProductID: productHash,
		RemoteOfferID:   offerHash,
	}
}
