package aliexpress

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
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
	methodSearch      = "aliexpress.ds.text.search"
	methodProductGet  = "aliexpress.ds.product.get"
	methodOrderCreate = "aliexpress.ds.order.create"
	methodOrderQuery  = "aliexpress.ds.order.tracking.get"

	rateLimit       = 50
	rateLimitWindow = time.Minute
)

// Client calls the AliExpress dropshipping gateway. Every request carries a
// sorted-parameter SHA-256 signature plus the access token stored for this
// supplier.
type Client struct {
	cfg     config.AliExpressConfig
	creds   suppliers.CredentialSource
	http    *http.Client
	limiter *suppliers.RateLimitTracker
	logg    *logger.Logger
	metrics *metrics.SupplierMetrics
}

// NewClient validates the configuration and builds the gateway client.
func NewClient(cfg config.AliExpressConfig, creds suppliers.CredentialSource, logg *logger.Logger, sm *metrics.SupplierMetrics) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("aliexpress app key and secret are required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential source is required")
	}
	return &Client{
		cfg:     cfg,
		creds:   creds,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: suppliers.NewRateLimitTracker(rateLimit, rateLimitWindow),
		logg:    logg,
		metrics: sm,
	}, nil
}

// Type implements suppliers.Supplier.
func (c *Client) Type() enums.SupplierType {
	return enums.SupplierAliExpress
}

// Name implements suppliers.Supplier.
func (c *Client) Name() string {
	return "AliExpress Dropshipping"
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"msg"`
}

type wireProduct struct {
	ProductID    string          `json:"product_id"`
	Title        string          `json:"product_title"`
	Description  string          `json:"product_description"`
	ImageURLs    string          `json:"image_urls"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Currency     string          `json:"sale_price_currency"`
	ShippingFee  decimal.Decimal `json:"shipping_fee"`
	DeliveryTime string          `json:"delivery_time"`
	InStock      bool            `json:"in_stock"`
	SKUs         []wireSKU       `json:"skus"`
}

type wireSKU struct {
	SKUID      string            `json:"sku_id"`
	Name       string            `json:"sku_name"`
	Price      decimal.Decimal   `json:"sku_price"`
	Stock      int               `json:"sku_stock"`
	Properties map[string]string `json:"sku_properties"`
}

type searchResponse struct {
	Result struct {
		Products   []wireProduct `json:"products"`
		TotalCount int           `json:"total_count"`
	} `json:"result"`
	Error *wireError `json:"error_response"`
}

type productResponse struct {
	Result wireProduct `json:"result"`
	Error  *wireError  `json:"error_response"`
}

type orderCreateResponse struct {
	Result struct {
		OrderID     int64  `json:"order_id"`
		OrderStatus string `json:"order_status"`
	} `json:"result"`
	Error *wireError `json:"error_response"`
}

type orderTrackingResponse struct {
	Result struct {
		OrderStatus       string `json:"order_status"`
		TrackingNumber    string `json:"tracking_number"`
		TrackingURL       string `json:"tracking_url"`
		EstimatedDelivery string `json:"estimated_delivery_time"`
	} `json:"result"`
	Error *wireError `json:"error_response"`
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

	var resp searchResponse
	err := c.invoke(ctx, methodSearch, map[string]string{
		"keywords":  params.Query,
		"page_no":   strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, gatewayError(methodSearch, resp.Error)
	}

	products := make([]suppliers.Product, 0, len(resp.Result.Products))
	for _, raw := range resp.Result.Products {
		products = append(products, c.normalize(raw))
	}
	return &suppliers.SearchResult{
		Products: products,
		Total:    resp.Result.TotalCount,
		HasMore:  page*pageSize < resp.Result.TotalCount,
	}, nil
}

// GetProduct implements suppliers.Supplier.
func (c *Client) GetProduct(ctx context.Context, supplierProductID string) (*suppliers.Product, error) {
	var resp productResponse
	err := c.invoke(ctx, methodProductGet, map[string]string{
		"product_id": supplierProductID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, gatewayError(methodProductGet, resp.Error)
	}
	product := c.normalize(resp.Result)
	return &product, nil
}

// CreateOrder implements suppliers.Supplier.
func (c *Client) CreateOrder(ctx context.Context, req suppliers.OrderRequest) (*suppliers.OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order request has no items")
	}

	type lineItem struct {
		ProductID string `json:"product_id"`
		SKUID     string `json:"sku_id,omitempty"`
		Quantity  int    `json:"quantity"`
	}
	items := make([]lineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, lineItem{
			ProductID: item.SupplierProductID,
			SKUID:     item.VariantSKU,
			Quantity:  item.Quantity,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	addressJSON, err := json.Marshal(map[string]string{
		"contact_person": strings.TrimSpace(req.Address.FirstName + " " + req.Address.LastName),
		"address":        req.Address.Line1,
		"address2":       deref(req.Address.Line2),
		"city":           req.Address.City,
		"province":       deref(req.Address.State),
		"zip":            req.Address.PostalCode,
		"country":        req.Address.Country,
		"phone_number":   deref(req.Address.Phone),
	})
	if err != nil {
		return nil, err
	}

	var resp orderCreateResponse
	err = c.invoke(ctx, methodOrderCreate, map[string]string{
		"product_items":     string(itemsJSON),
		"logistics_address": string(addressJSON),
		"out_order_id":      req.ExternalRef,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, gatewayError(methodOrderCreate, resp.Error)
	}
	if resp.Result.OrderID == 0 {
		return nil, fmt.Errorf("aliexpress returned no order id")
	}
	return &suppliers.OrderResult{
		OrderID: strconv.FormatInt(resp.Result.OrderID, 10),
		Status:  resp.Result.OrderStatus,
	}, nil
}

// GetOrderStatus implements suppliers.Supplier.
func (c *Client) GetOrderStatus(ctx context.Context, supplierOrderID string) (*suppliers.OrderStatus, error) {
	var resp orderTrackingResponse
	err := c.invoke(ctx, methodOrderQuery, map[string]string{
		"order_id": supplierOrderID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, gatewayError(methodOrderQuery, resp.Error)
	}
	return &suppliers.OrderStatus{
		Status:            strings.ToLower(resp.Result.OrderStatus),
		TrackingNumber:    resp.Result.TrackingNumber,
		TrackingURL:       resp.Result.TrackingURL,
		EstimatedDelivery: resp.Result.EstimatedDelivery,
	}, nil
}

// IsHealthy implements suppliers.Supplier with a minimal search probe.
func (c *Client) IsHealthy(ctx context.Context) error {
	var resp searchResponse
	err := c.invoke(ctx, methodSearch, map[string]string{
		"keywords":  "usb",
		"page_no":   "1",
		"page_size": "1",
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return gatewayError(methodSearch, resp.Error)
	}
	return nil
}

// RateLimitInfo implements suppliers.Supplier.
func (c *Client) RateLimitInfo() suppliers.RateLimitInfo {
	return c.limiter.Info()
}

func (c *Client) normalize(raw wireProduct) suppliers.Product {
	images := []string{}
	for _, img := range strings.Split(raw.ImageURLs, ";") {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			images = append(images, trimmed)
		}
	}
	variants := make([]suppliers.Variant, 0, len(raw.SKUs))
	for _, sku := range raw.SKUs {
		variants = append(variants, suppliers.Variant{
			SKU:        sku.SKUID,
			Name:       sku.Name,
			Price:      sku.Price,
			Inventory:  sku.Stock,
			Attributes: sku.Properties,
		})
	}
	return suppliers.Product{
		Supplier:          enums.SupplierAliExpress,
		SupplierProductID: raw.ProductID,
		Title:             raw.Title,
		Description:       raw.Description,
		Images:            images,
		Cost:              raw.SalePrice,
		Currency:          raw.Currency,
		ShippingCost:      raw.ShippingFee,
		DeliveryEstimate:  raw.DeliveryTime,
		InStock:           raw.InStock,
		Variants:          variants,
	}
}

func (c *Client) invoke(ctx context.Context, method string, bizParams map[string]string, out any) error {
	token, err := c.creds.AccessToken(ctx, enums.SupplierAliExpress)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "loading aliexpress credentials")
	}

	params := map[string]string{
		"app_key":      c.cfg.AppKey,
		"method":       method,
		"access_token": token,
		"timestamp":    strconv.FormatInt(time.Now().UnixMilli(), 10),
		"sign_method":  "sha256",
		"format":       "json",
		"v":            "2.0",
	}
	for k, v := range bizParams {
		params[k] = v
	}
	params["sign"] = sign(params, c.cfg.AppSecret)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	c.limiter.Record()
	resp, err := c.http.Do(req)
	c.metrics.ObserveRequest(string(enums.SupplierAliExpress), method, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(string(enums.SupplierAliExpress), method)
		return errors.Wrap(errors.CodeDependency, err, "calling aliexpress gateway")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.IncFailure(string(enums.SupplierAliExpress), method)
		return errors.Newf(errors.CodeDependency, "aliexpress gateway returned %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "decoding aliexpress response")
	}
	return nil
}

// sign builds the gateway signature: parameters sorted by key, concatenated
// as key+value, HMAC-SHA256 with the app secret, uppercase hex.
func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(builder.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func gatewayError(method string, werr *wireError) error {
	return errors.Newf(errors.CodeDependency, "aliexpress %s failed: %s (%s)", method, werr.Message, werr.Code)
}
