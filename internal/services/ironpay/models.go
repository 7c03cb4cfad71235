package ironpay

// RemoteProduct is a product as listed by the gateway.
type RemoteProduct struct {
	Hash       string        `json:"hash"`
	Title      string        `json:"title"`
	SalePage   string        `json:"sale_page"`
	CategoryID int           `json:"id_category"`
	Amount     int64         `json:"amount"`
	Offers     []RemoteOffer `json:"offers"`
}

// RemoteOffer is a priced offer attached to a RemoteProduct.
type RemoteOffer struct {
	Hash   string `json:"hash"`
	Title  string `json:"title"`
	Amount int64  `json:"amount"`
}

// ProductPayload is the body of POST /products.
type ProductPayload struct {
	Title        string `json:"title"`
	Cover        string `json:"cover"`
	SalePage     string `json:"sale_page"`
	PaymentType  int    `json:"payment_type"`
	ProductType  string `json:"product_type"`
	DeliveryType int    `json:"delivery_type"`
	CategoryID   int    `json:"id_category"`
	Amount       int64  `json:"amount"`
}

// ProductUpdatePayload is the body of PUT /products/{hash}.
type ProductUpdatePayload struct {
	Title      string `json:"title"`
	Cover      string `json:"cover"`
	SalePage   string `json:"sale_page"`
	CategoryID int    `json:"id_category"`
	Amount     int64  `json:"amount"`
}

// OfferPayload is the body of POST /products/{hash}/offers.
type OfferPayload struct {
	Title  string `json:"title"`
	Cover  string `json:"cover"`
	Amount int64  `json:"amount"`
}

// Fixed product attributes for physical goods sold by the store.
const (
	PaymentTypeSingle    = 1
	ProductTypePhysical  = "fisico"
	DeliveryTypeShipping = 2
)

type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodBillet     PaymentMethod = "billet"
)

// TransactionRequest is the body of POST /transactions.
type TransactionRequest struct {
	Amount            int64                 `json:"amount"`
	OfferHash         string                `json:"offer_hash"`
	PaymentMethod     PaymentMethod         `json:"payment_method"`
	Customer          TransactionCustomer   `json:"customer"`
	Cart              []TransactionCartItem `json:"cart"`
	ExpireInDays      int                   `json:"expire_in_days"`
	TransactionOrigin string                `json:"transaction_origin"`
	Installments      int                   `json:"installments"`
	PostbackURL       string                `json:"postback_url,omitempty"`
	Card              *TransactionCard      `json:"card,omitempty"`
}

type TransactionCustomer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	Document     string `json:"document"`
	StreetName   string `json:"street_name"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

type TransactionCartItem struct {
	ProductHash   string  `json:"product_hash"`
	Title         string  `json:"title"`
	Cover         *string `json:"cover"`
	Price         int64   `json:"price"`
	Quantity      int     `json:"quantity"`
	OperationType int     `json:"operation_type"`
	Tangible      bool    `json:"tangible"`
}

type TransactionCard struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
}

// TransactionResponse is the useful subset of a transaction answer. Raw keeps
// the whole decoded body for persistence and pass-through.
type TransactionResponse struct {
	Hash      string                 `json:"hash"`
	Status    string                 `json:"status"`
	PixCode   string                 `json:"pix_code,omitempty"`
	ExpiresAt string                 `json:"expires_at,omitempty"`
	Raw       map[string]interface{} `json:"-"`
}

// Accepted reports whether the gateway actually registered the transaction.
func (r *TransactionResponse) Accepted() bool {
	return r.Hash != "" || r.Status != ""
}
