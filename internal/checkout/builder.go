// Package checkout turns a storefront cart into a gateway transaction.
package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"storesync/internal/logger"
	"storesync/internal/matcher"
	"storesync/internal/models"
	"storesync/internal/money"
	"storesync/internal/services/ironpay"
	"storesync/internal/validation"

	"github.com/shopspring/decimal"
)

const (
	operationTypeSale = 1
	transactionOrigin = "api"
)

// CartLine is one line of a cart. It lives only for one build.
type CartLine struct {
	ProductID       string  `json:"id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	UnitPrice       float64 `json:"price" validate:"gte=0"`
	Quantity        int     `json:"quantity" validate:"min=1"`
	Size            string  `json:"size"`
	Color           string  `json:"color"`
	ImageURL        string  `json:"image_url"`
	RemoteProductID string  `json:"product_hash"`
	RemoteOfferID   string  `json:"offer_hash"`
}

type Customer struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	Document     string `json:"document"`
	StreetName   string `json:"street_name"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// Card is raw credit card input. Number may contain spaces.
type Card struct {
	Number     string `json:"number" validate:"required,digits,min=12,max=19"`
	HolderName string `json:"holder_name" validate:"required"`
	ExpMonth   string `json:"exp_month" validate:"required,digits,len=2"`
	ExpYear    string `json:"exp_year" validate:"required,digits,len=4"`
	CVV        string `json:"cvv" validate:"required,digits,min=3,max=4"`
}

type Input struct {
	Lines         []CartLine            `json:"cart" validate:"dive"`
	Customer      Customer              `json:"customer"`
	PaymentMethod ironpay.PaymentMethod `json:"payment_method" validate:"required,oneof=pix credit_card billet"`
	Card          *Card                 `json:"card" validate:"-"`
	Installments  int                   `json:"installments" validate:"gte=0"`
	OfferHash     string                `json:"offer_hash"`
}

type Config struct {
	StoreBaseURL     string
	DefaultOfferHash string
	MinItemPrice     int64
	ExpireInDays     int
	PostbackURL      string
}

// RemoteCreator runs the reconciler's create path.
type RemoteCreator interface {
	CreateRemote(ctx context.Context, p *models.Product) (string, string, error)
	CreateOffer(ctx context.Context, productHash string, p *models.Product) (string, error)
}

type Builder struct {
	lister    matcher.Lister
	creator   RemoteCreator
	matcher   *matcher.Matcher
	validator *validation.Validator
	config    Config
	logger    *logger.Logger
}

func NewBuilder(lister matcher.Lister, creator RemoteCreator, v *validation.Validator, cfg Config, logger *logger.Logger) *Builder {
	if cfg.MinItemPrice == 0 {
		cfg.MinItemPrice = 500
	}
	if cfg.ExpireInDays == 0 {
		cfg.ExpireInDays = 1
	}
	return &Builder{
		lister:    lister,
		creator:   creator,
		matcher:   matcher.New(cfg.StoreBaseURL),
		validator: v,
		config:    cfg,
		logger:    logger,
	}
}

type resolved struct {
	productHash string
	offerHash   string
}

// Build validates in and resolves every line to gateway hashes. All local
// checks run before the first gateway call. The remote catalog is listed at
// most once per build, and only when some line has no attached hashes.
func (b *Builder) Build(ctx context.Context, in Input) (*ironpay.TransactionRequest, error) {
	if len(in.Lines) == 0 {
		return nil, &ValidationError{Message: "cart is empty"}
	}

	if fields := b.validator.Struct(in); fields != nil {
		return nil, &ValidationError{Message: "invalid checkout data", Fields: fields}
	}

	card, err := b.card(in)
	if err != nil {
		return nil, err
	}

	if err := b.checkPriceFloor(in.Lines); err != nil {
		return nil, err
	}

	total := Total(in.Lines)

	snap := matcher.NewSnapshot(b.lister)
	cache := make(map[string]resolved, len(in.Lines))

	cart := make([]ironpay.TransactionCartItem, 0, len(in.Lines))
	var firstOffer string
	for _, line := range in.Lines {
		r, ok := cache[line.ProductID]
		if !ok {
			r, err = b.resolve(ctx, line, snap)
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", line.Name, err)
			}
			cache[line.ProductID] = r
		}
		if firstOffer == "" {
			firstOffer = r.offerHash
		}

		cart = append(cart, ironpay.TransactionCartItem{
			ProductHash:   r.productHash,
			Title:         line.Name,
			Cover:         cover(line.ImageURL),
			Price:         money.ToMinor(line.UnitPrice),
			Quantity:      line.Quantity,
			OperationType: operationTypeSale,
			Tangible:      true,
		})
	}

	installments := in.Installments
	if installments <= 0 {
		installments = 1
	}

	req := &ironpay.TransactionRequest{
		Amount:            money.Minor(total),
		OfferHash:         firstNonEmpty(in.OfferHash, b.config.DefaultOfferHash, firstOffer),
		PaymentMethod:     in.PaymentMethod,
		Customer:          normalizeCustomer(in.Customer),
		Cart:              cart,
		ExpireInDays:      b.config.ExpireInDays,
		TransactionOrigin: transactionOrigin,
		Installments:      installments,
		PostbackURL:       b.config.PostbackURL,
		Card:              card,
	}
	return req, nil
}

// Total is the cart total in major units.
func Total(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(money.LineTotal(line.UnitPrice, line.Quantity))
	}
	return total
}

func (b *Builder) card(in Input) (*ironpay.TransactionCard, error) {
	if in.PaymentMethod != ironpay.PaymentMethodCreditCard {
		return nil, nil
	}
	if in.Card == nil {
		return nil, &ValidationError{
			Message: "card data is required for credit card payments",
			Fields:  []validation.FieldError{{Field: "card", Rule: "required", Message: "card is required"}},
		}
	}

	card := *in.Card
	card.Number = stripSpaces(card.Number)
	if fields := b.validator.Struct(card); fields != nil {
		for i := range fields {
			fields[i].Field = "card." + fields[i].Field
		}
		return nil, &ValidationError{Message: "invalid card data", Fields: fields}
	}

	month, _ := strconv.Atoi(card.ExpMonth)
	year, _ := strconv.Atoi(card.ExpYear)
	if month < 1 || month > 12 {
		return nil, &ValidationError{
			Message: "invalid card data",
			Fields:  []validation.FieldError{{Field: "card.exp_month", Rule: "month", Message: "exp_month must be between 01 and 12"}},
		}
	}

	return &ironpay.TransactionCard{
		Number:     card.Number,
		HolderName: card.HolderName,
		ExpMonth:   month,
		ExpYear:    year,
		CVV:        card.CVV,
	}, nil
}

func (b *Builder) checkPriceFloor(lines []CartLine) error {
	var invalid []InvalidItem
	for _, line := range lines {
		if price := money.ToMinor(line.UnitPrice); price < b.config.MinItemPrice {
			invalid = append(invalid, InvalidItem{Title: line.Name, Price: price})
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	titles := make([]string, 0, len(invalid))
	for _, item := range invalid {
		titles = append(titles, item.Title)
	}
	return &ValidationError{
		Message: fmt.Sprintf("minimum unit price is %s, adjust the price of: %s",
			money.FromMinor(b.config.MinItemPrice).StringFixed(2), strings.Join(titles, ", ")),
		Items: invalid,
	}
}

func (b *Builder) resolve(ctx context.Context, line CartLine, snap *matcher.Snapshot) (resolved, error) {
	if line.RemoteProductID != "" && line.RemoteOfferID != "" {
		return resolved{productHash: line.RemoteProductID, offerHash: line.RemoteOfferID}, nil
	}

	product := line.product()

	remote, found, err := b.matcher.Find(ctx, line.ProductID, line.Name, snap)
	if err != nil {
		return resolved{}, fmt.Errorf("list products: %w", err)
	}

	if found {
		if offer := matcher.FirstOffer(remote); offer != "" {
			return resolved{productHash: remote.Hash, offerHash: offer}, nil
		}
		b.logger.Info("IronPay product %s has no offers, creating one for %s", remote.Hash, line.ProductID)
		offer, err := b.creator.CreateOffer(ctx, remote.Hash, product)
		if err != nil {
			return resolved{}, err
		}
		return resolved{productHash: remote.Hash, offerHash: offer}, nil
	}

	b.logger.Info("No IronPay product for cart line %s (%s), creating it", line.ProductID, line.Name)
	productHash, offerHash, err := b.creator.CreateRemote(ctx, product)
	if err != nil {
		return resolved{}, err
	}
	return resolved{productHash: productHash, offerHash: offerHash}, nil
}

func (l CartLine) product() *models.Product {
	return &models.Product{
		ID:       l.ProductID,
		Name:     l.Name,
		Price:    l.UnitPrice,
		ImageURL: l.ImageURL,
	}
}

func normalizeCustomer(c Customer) ironpay.TransactionCustomer {
	return ironpay.TransactionCustomer{
		Name:         c.Name,
		Email:        c.Email,
		PhoneNumber:  digitsOnly(c.Phone),
		Document:     digitsOnly(c.Document),
		StreetName:   c.StreetName,
		Number:       c.Number,
		Complement:   c.Complement,
		Neighborhood: c.Neighborhood,
		City:         c.City,
		State:        c.State,
		ZipCode:      digitsOnly(c.ZipCode),
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func cover(imageURL string) *string {
	if imageURL == "" {
		return nil
	}
	return &imageURL
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
