package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/redis"
)

// defaultTTL keeps abandoned carts around long enough for returning shoppers.
const defaultTTL = 30 * 24 * time.Hour

// Item is one stored cart line, keyed by (product id, variant id).
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID *string   `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
}

// Line is a cart item joined with its authoritative catalog price.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *string         `json:"variant_id,omitempty"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	InStock   bool            `json:"in_stock"`
}

// View is the priced cart returned to the client. Prices come from the
// catalog at read time, never from stored values.
type View struct {
	Items    []Line          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Currency enums.Currency  `json:"currency"`
}

// AddItemInput adds quantity for one (product, variant) pair.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	VariantID *string   `json:"variant_id"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// Service exposes the per-subject cart operations.
type Service interface {
	Get(ctx context.Context, subject string) (*View, error)
	AddItem(ctx context.Context, subject string, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, subject string, productID uuid.UUID, variantID *string, quantity int) (*View, error)
	Clear(ctx context.Context, subject string) error
}

type cartStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(subject string) string
}

type productReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Store    cartStore
	Products productReader
	TTL      time.Duration
	Logger   *logger.Logger
}

type service struct {
	store    cartStore
	products productReader
	ttl      time.Duration
	logg     *logger.Logger
}

// NewService constructs the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &service{store: params.Store, products: params.Products, ttl: ttl, logg: params.Logger}, nil
}

// Get returns the priced cart for the subject.
func (s *service) Get(ctx context.Context, subject string) (*View, error) {
	items, err := s.load(ctx, subject)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, items)
}

// AddItem merges quantity into the matching line, or appends a new one.
func (s *service) AddItem(ctx context.Context, subject string, input AddItemInput) (*View, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	known, err := s.products.FindByIDs(ctx, []uuid.UUID{input.ProductID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if _, ok := known[input.ProductID]; !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product not found: %s", input.ProductID)
	}

	items, err := s.load(ctx, subject)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ProductID == input.ProductID && variantEqual(items[i].VariantID, input.VariantID) {
			items[i].Quantity += input.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, Item{ProductID: input.ProductID, VariantID: input.VariantID, Quantity: input.Quantity})
	}

	if err := s.save(ctx, subject, items); err != nil {
		return nil, err
	}
	return s.price(ctx, items)
}

// UpdateQuantity sets the quantity for a line; zero or less removes it.
func (s *service) UpdateQuantity(ctx context.Context, subject string, productID uuid.UUID, variantID *string, quantity int) (*View, error) {
	items, err := s.load(ctx, subject)
	if err != nil {
		return nil, err
	}

	next := items[:0]
	found := false
	for _, item := range items {
		if item.ProductID == productID && variantEqual(item.VariantID, variantID) {
			found = true
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		next = append(next, item)
	}
	if !found {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "cart item not found: %s", productID)
	}

	if err := s.save(ctx, subject, next); err != nil {
		return nil, err
	}
	return s.price(ctx, next)
}

// Clear drops the cart.
func (s *service) Clear(ctx context.Context, subject string) error {
	if err := s.store.Del(ctx, s.store.CartKey(subject)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: clear cart")
	}
	return nil
}

func (s *service) load(ctx context.Context, subject string) ([]Item, error) {
	raw, err := s.store.Get(ctx, s.store.CartKey(subject))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: load cart")
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding stored cart")
	}
	return items, nil
}

func (s *service) save(ctx context.Context, subject string, items []Item) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart")
	}
	if err := s.store.Set(ctx, s.store.CartKey(subject), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: save cart")
	}
	return nil
}

// price joins stored lines against the catalog. Lines whose product has
// disappeared from the catalog are skipped rather than failing the read.
func (s *service) price(ctx context.Context, items []Item) (*View, error) {
	view := &View{Items: []Line{}, Subtotal: decimal.Zero, Currency: enums.CurrencyNGN}
	if len(items) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart products")
	}

	for _, item := range items {
		product, ok := catalog[item.ProductID]
		if !ok {
			continue
		}
		unit := product.FinalPrice
		if item.VariantID != nil {
			for _, variant := range product.Variants {
				if variant.SKU == *item.VariantID {
					unit = variant.Price
					break
				}
			}
		}
		line := Line{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     product.Title,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
			InStock:   product.StockStatus == enums.StockStatusInStock,
		}
		view.Items = append(view.Items, line)
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
		view.Currency = product.Currency
	}
	return view, nil
}

func variantEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
