package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/metrics"
)

const (
	tokenHeader = "CJ-Access-Token"

	rateLimit       = 100
	rateLimitWindow = time.Minute
)

// Client calls the CJ Dropshipping REST API using a static token header.
type Client struct {
	cfg     config.CJConfig
	http    *http.Client
	limiter *suppliers.RateLimitTracker
	logg    *logger.Logger
	metrics *metrics.SupplierMetrics
}

// NewClient validates the configuration and builds the REST client.
func NewClient(cfg config.CJConfig, logg *logger.Logger, sm *metrics.SupplierMetrics) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("cj api key is required")
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: suppliers.NewRateLimitTracker(rateLimit, rateLimitWindow),
		logg:    logg,
		metrics: sm,
	}, nil
}

// Type implements suppliers.Supplier.
func (c *Client) Type() enums.SupplierType {
	return enums.SupplierCJ
}

// Name implements suppliers.Supplier.
func (c *Client) Name() string {
	return "CJ Dropshipping"
}

type envelope struct {
	Code    int             `json:"code"`
	Result  bool            `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wireProduct struct {
	PID          string          `json:"pid"`
	NameEN       string          `json:"productNameEn"`
	Description  string          `json:"description"`
	ImageList    []string        `json:"productImageSet"`
	SellPrice    decimal.Decimal `json:"sellPrice"`
	Currency     string          `json:"currency"`
	ShippingFee  decimal.Decimal `json:"logisticPrice"`
	DeliveryTime string          `json:"logisticAging"`
	ListedNum    int             `json:"listedNum"`
	Variants     []wireVariant   `json:"variants"`
}

type wireVariant struct {
	VID       string          `json:"vid"`
	SKU       string          `json:"variantSku"`
	NameEN    string          `json:"variantNameEn"`
	SellPrice decimal.Decimal `json:"variantSellPrice"`
	Stock     int             `json:"variantStock"`
}

type productListData struct {
	List  []wireProduct `json:"list"`
	Total int           `json:"total"`
}

type orderCreateData struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

type orderDetailData struct {
	OrderStatus    string `json:"orderStatus"`
	TrackNumber    string `json:"trackNumber"`
	TrackURL       string `json:"trackUrl"`
	LogisticAging  string `json:"logisticAging"`
}

// SearchProducts implements suppliers.Supplier.
func (c *Client) SearchProducts(ctx context.Context, params suppliers.SearchParams) (*suppliers.SearchResult, error) {
	page := params.Page
	if page <= 0 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := url.Values{}
	query.Set("productNameEn", params.Query)
	query.Set("pageNum", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var data productListData
	if err := c.get(ctx, "/product/list", query, &data); err != nil {
		return nil, err
	}

	products := make([]suppliers.Product, 0, len(data.List))
	for _, raw := range data.List {
		products = append(products, normalize(raw))
	}
	return &suppliers.SearchResult{
		Products: products,
		Total:    data.Total,
		HasMore:  page*pageSize < data.Total,
	}, nil
}

// GetProduct implements suppliers.Supplier.
func (c *Client) GetProduct(ctx context.Context, supplierProductID string) (*suppliers.Product, error) {
	query := url.Values{}
	query.Set("pid", supplierProductID)

	var raw wireProduct
	if err := c.get(ctx, "/product/query", query, &raw); err != nil {
		return nil, err
	}
	product := normalize(raw)
	return &product, nil
}

// CreateOrder implements suppliers.Supplier.
func (c *Client) CreateOrder(ctx context.Context, req suppliers.OrderRequest) (*suppliers.OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order request has no items")
	}

	type productLine struct {
		VID      string `json:"vid,omitempty"`
		PID      string `json:"pid"`
		Quantity int    `json:"quantity"`
	}
	lines := make([]productLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, productLine{
			PID:      item.SupplierProductID,
			VID:      item.VariantSKU,
			Quantity: item.Quantity,
		})
	}

	payload := map[string]any{
		"orderNumber":   req.ExternalRef,
		"consigneeName": strings.TrimSpace(req.Address.FirstName + " " + req.Address.LastName),
		"email":         req.Email,
		"address":       req.Address.Line1,
		"address2":      deref(req.Address.Line2),
		"city":          req.Address.City,
		"province":      deref(req.Address.State),
		"zip":           req.Address.PostalCode,
		"country":       req.Address.Country,
		"phone":         deref(req.Address.Phone),
		"products":      lines,
	}

	var data orderCreateData
	if err := c.post(ctx, "/shopping/order/createOrder", payload, &data); err != nil {
		return nil, err
	}
	if data.OrderID == "" {
		return nil, fmt.Errorf("cj returned no order id")
	}
	return &suppliers.OrderResult{
		OrderID: data.OrderID,
		Status:  data.OrderStatus,
	}, nil
}

// GetOrderStatus implements suppliers.Supplier.
func (c *Client) GetOrderStatus(ctx context.Context, supplierOrderID string) (*suppliers.OrderStatus, error) {
	query := url.Values{}
	query.Set("orderId", supplierOrderID)

	var data orderDetailData
	if err := c.get(ctx, "/shopping/order/getOrderDetail", query, &data); err != nil {
		return nil, err
	}
	return &suppliers.OrderStatus{
		Status:            strings.ToLower(data.OrderStatus),
		TrackingNumber:    data.TrackNumber,
		TrackingURL:       data.TrackURL,
		EstimatedDelivery: data.LogisticAging,
	}, nil
}

// IsHealthy implements suppliers.Supplier with a one-row listing probe.
func (c *Client) IsHealthy(ctx context.Context) error {
	query := url.Values{}
	query.Set("pageNum", "1")
	query.Set("pageSize", "1")

	var data productListData
	return c.get(ctx, "/product/list", query, &data)
}

// RateLimitInfo implements suppliers.Supplier.
func (c *Client) RateLimitInfo() suppliers.RateLimitInfo {
	return c.limiter.Info()
}

func normalize(raw wireProduct) suppliers.Product {
	variants := make([]suppliers.Variant, 0, len(raw.Variants))
	for _, v := range raw.Variants {
		sku := v.SKU
		if sku == "" {
			sku = v.VID
		}
		variants = append(variants, suppliers.Variant{
			SKU:       sku,
			Name:      v.NameEN,
			Price:     v.SellPrice,
			Inventory: v.Stock,
		})
	}
	return suppliers.Product{
		Supplier:          enums.SupplierCJ,
		SupplierProductID: raw.PID,
		Title:             raw.NameEN,
		Description:       raw.Description,
		Images:            raw.ImageList,
		Cost:              raw.SellPrice,
		Currency:          raw.Currency,
		ShippingCost:      raw.ShippingFee,
		DeliveryEstimate:  raw.DeliveryTime,
		InStock:           raw.ListedNum > 0,
		Variants:          variants,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	req.Header.Set(tokenHeader, c.cfg.APIKey)

	start := time.Now()
	c.limiter.Record()
	resp, err := c.http.Do(req)
	c.metrics.ObserveRequest(string(enums.SupplierCJ), operation, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(string(enums.SupplierCJ), operation)
		return errors.Wrap(errors.CodeDependency, err, "calling cj api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.IncFailure(string(enums.SupplierCJ), operation)
		return errors.Newf(errors.CodeDependency, "cj api returned %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "decoding cj response")
	}
	if !env.Result {
		c.metrics.IncFailure(string(enums.SupplierCJ), operation)
		return errors.Newf(errors.CodeDependency, "cj %s failed: %s (code %d)", operation, env.Message, env.Code)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "decoding cj payload")
		}
	}
	return nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
