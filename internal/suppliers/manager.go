package suppliers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

const unknownDeliveryDays = 999

var deliveryDaysRe = regexp.MustCompile(`(?i)(\d+)\s*day`)

// ManagerParams collects the manager's dependencies.
type ManagerParams struct {
	Config config.SupplierManagerConfig
	Logger *logger.Logger
	Cache  Cache
}

// Manager routes requests to the registered suppliers and aggregates
// cross-supplier operations. Suppliers without configured credentials are
// simply not registered; that is not an error.
type Manager struct {
	suppliers map[enums.SupplierType]Supplier
	order     []enums.SupplierType
	timeout   time.Duration
	cache     Cache
	logg      *logger.Logger
}

// NewManager builds a manager with the provided suppliers.
func NewManager(params ManagerParams, registered ...Supplier) (*Manager, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	timeout := params.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	m := &Manager{
		suppliers: make(map[enums.SupplierType]Supplier),
		timeout:   timeout,
		cache:     params.Cache,
		logg:      params.Logger,
	}
	for _, s := range registered {
		m.Register(s)
	}
	return m, nil
}

// Register adds a supplier; nil suppliers are ignored.
func (m *Manager) Register(s Supplier) {
	if s == nil {
		return
	}
	if _, exists := m.suppliers[s.Type()]; !exists {
		m.order = append(m.order, s.Type())
	}
	m.suppliers[s.Type()] = s
}

// Get returns the supplier registered for the given type.
func (m *Manager) Get(supplierType enums.SupplierType) (Supplier, bool) {
	s, ok := m.suppliers[supplierType]
	return s, ok
}

// Types lists the registered supplier types in registration order.
func (m *Manager) Types() []enums.SupplierType {
	out := make([]enums.SupplierType, len(m.order))
	copy(out, m.order)
	return out
}

// SearchOutcome is one supplier's contribution to a fan-out search.
type SearchOutcome struct {
	Supplier enums.SupplierType `json:"supplier"`
	Result   SearchResult       `json:"result"`
	Err      error              `json:"-"`
}

// SearchProducts fans the query out to every registered supplier
// concurrently. A failing supplier contributes an empty result; the batch
// never aborts.
func (m *Manager) SearchProducts(ctx context.Context, params SearchParams) []SearchOutcome {
	type indexed struct {
		idx     int
		outcome SearchOutcome
	}

	results := make(chan indexed, len(m.order))
	for i, supplierType := range m.order {
		go func(idx int, st enums.SupplierType) {
			outcome := SearchOutcome{Supplier: st}
			result, err := m.searchOne(ctx, m.suppliers[st], params)
			if err != nil {
				outcome.Err = err
				m.logg.Error(m.logg.WithSupplier(ctx, string(st)), "supplier search failed", err)
			} else {
				outcome.Result = *result
			}
			results <- indexed{idx: idx, outcome: outcome}
		}(i, supplierType)
	}

	outcomes := make([]SearchOutcome, len(m.order))
	for range m.order {
		r := <-results
		outcomes[r.idx] = r.outcome
	}
	return outcomes
}

func (m *Manager) searchOne(ctx context.Context, s Supplier, params SearchParams) (*SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cacheParams := CacheParams(params)
	if m.cache != nil {
		if raw, ok := m.cache.Get(ctx, string(s.Type()), "search", cacheParams); ok {
			var cached SearchResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	result, err := s.SearchProducts(ctx, params)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			m.cache.Set(ctx, string(s.Type()), "search", cacheParams, raw)
		}
	}
	return result, nil
}

// ComparisonEntry scores one supplier's best match for a query.
type ComparisonEntry struct {
	Supplier     enums.SupplierType `json:"supplier"`
	Product      Product            `json:"product"`
	TotalCost    decimal.Decimal    `json:"total_cost"`
	DeliveryDays int                `json:"delivery_days"`
	OverallScore float64            `json:"overall_score"`
}

// Comparison ranks the suppliers able to serve a product query.
type Comparison struct {
	Entries         []ComparisonEntry   `json:"entries"`
	BestPrice       *enums.SupplierType `json:"best_price,omitempty"`
	FastestDelivery *enums.SupplierType `json:"fastest_delivery,omitempty"`
	BestOverall     *enums.SupplierType `json:"best_overall,omitempty"`
}

// CompareProduct searches every supplier for the query and ranks the top hit
// of each on landed cost, delivery speed, and a weighted overall score.
func (m *Manager) CompareProduct(ctx context.Context, query string) (*Comparison, error) {
	outcomes := m.SearchProducts(ctx, SearchParams{Query: query, Page: 1, PageSize: 1})

	comparison := &Comparison{}
	for _, outcome := range outcomes {
		if outcome.Err != nil || len(outcome.Result.Products) == 0 {
			continue
		}
		product := outcome.Result.Products[0]
		totalCost := product.Cost.Add(product.ShippingCost)
		days := ParseDeliveryDays(product.DeliveryEstimate)
		comparison.Entries = append(comparison.Entries, ComparisonEntry{
			Supplier:     outcome.Supplier,
			Product:      product,
			TotalCost:    totalCost,
			DeliveryDays: days,
			OverallScore: overallScore(totalCost, days),
		})
	}
	if len(comparison.Entries) == 0 {
		return nil, fmt.Errorf("no supplier returned results for %q", query)
	}

	bestPrice := comparison.Entries[0]
	fastest := comparison.Entries[0]
	bestOverall := comparison.Entries[0]
	for _, entry := range comparison.Entries[1:] {
		if entry.TotalCost.LessThan(bestPrice.TotalCost) {
			bestPrice = entry
		}
		if entry.DeliveryDays < fastest.DeliveryDays {
			fastest = entry
		}
		if entry.OverallScore > bestOverall.OverallScore {
			bestOverall = entry
		}
	}
	comparison.BestPrice = &bestPrice.Supplier
	comparison.FastestDelivery = &fastest.Supplier
	comparison.BestOverall = &bestOverall.Supplier
	return comparison, nil
}

// ParseDeliveryDays extracts the first day count from a free-form delivery
// estimate, returning a sentinel for unparsable values.
func ParseDeliveryDays(estimate string) int {
	match := deliveryDaysRe.FindStringSubmatch(estimate)
	if match == nil {
		return unknownDeliveryDays
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return unknownDeliveryDays
	}
	return days
}

func overallScore(totalCost decimal.Decimal, deliveryDays int) float64 {
	cost, _ := totalCost.Float64()
	priceScore := 100 - cost/10
	if priceScore < 0 {
		priceScore = 0
	}
	deliveryScore := 100 - float64(deliveryDays)*5
	if deliveryScore < 0 {
		deliveryScore = 0
	}
	return 0.6*priceScore + 0.4*deliveryScore
}

// HealthStatus reports one supplier's reachability and latency.
type HealthStatus struct {
	Supplier  enums.SupplierType `json:"supplier"`
	Healthy   bool               `json:"healthy"`
	LatencyMS int64              `json:"latency_ms"`
	Error     string             `json:"error,omitempty"`
	RateLimit RateLimitInfo      `json:"rate_limit"`
}

// CheckHealth probes every registered supplier concurrently. A failing or
// hung probe marks that supplier unhealthy without delaying the rest of the
// batch.
func (m *Manager) CheckHealth(ctx context.Context) []HealthStatus {
	type indexed struct {
		idx    int
		status HealthStatus
	}

	results := make(chan indexed, len(m.order))
	for i, supplierType := range m.order {
		go func(idx int, st enums.SupplierType) {
			s := m.suppliers[st]
			probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
			start := time.Now()
			err := s.IsHealthy(probeCtx)
			cancel()

			status := HealthStatus{
				Supplier:  st,
				Healthy:   err == nil,
				LatencyMS: time.Since(start).Milliseconds(),
				RateLimit: s.RateLimitInfo(),
			}
			if err != nil {
				status.Error = err.Error()
			}
			results <- indexed{idx: idx, status: status}
		}(i, supplierType)
	}

	statuses := make([]HealthStatus, len(m.order))
	for range m.order {
		r := <-results
		statuses[r.idx] = r.status
	}
	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Supplier < statuses[j].Supplier
	})
	return statuses
}

// CreateOrder routes an order to the supplier of the given type.
func (m *Manager) CreateOrder(ctx context.Context, supplierType enums.SupplierType, req OrderRequest) (*OrderResult, error) {
	s, ok := m.Get(supplierType)
	if !ok {
		return nil, fmt.Errorf("supplier %s is not configured", supplierType)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return s.CreateOrder(ctx, req)
}

// GetOrderStatus routes a status poll to the supplier of the given type.
func (m *Manager) GetOrderStatus(ctx context.Context, supplierType enums.SupplierType, supplierOrderID string) (*OrderStatus, error) {
	s, ok := m.Get(supplierType)
	if !ok {
		return nil, fmt.Errorf("supplier %s is not configured", supplierType)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return s.GetOrderStatus(ctx, supplierOrderID)
}

// GetProduct routes a product lookup to the supplier of the given type.
func (m *Manager) GetProduct(ctx context.Context, supplierType enums.SupplierType, supplierProductID string) (*Product, error) {
	s, ok := m.Get(supplierType)
	if !ok {
		return nil, fmt.Errorf("supplier %s is not configured", supplierType)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return s.GetProduct(ctx, supplierProductID)
}
