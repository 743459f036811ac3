package suppliers

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/pkg/config"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

type stubSupplier struct {
	supplierType enums.SupplierType
	searchResult *SearchResult
	searchErr    error
	healthErr    error
	healthDelay  time.Duration
	orderResult  *OrderResult
	orderCalls   int
	statusResult *OrderStatus
}

func (s *stubSupplier) Type() enums.SupplierType { return s.supplierType }
func (s *stubSupplier) Name() string             { return string(s.supplierType) }

func (s *stubSupplier) SearchProducts(_ context.Context, _ SearchParams) (*SearchResult, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchResult, nil
}

func (s *stubSupplier) GetProduct(_ context.Context, id string) (*Product, error) {
	if s.searchResult != nil && len(s.searchResult.Products) > 0 {
		return &s.searchResult.Products[0], nil
	}
	return nil, errors.New("not found: " + id)
}

func (s *stubSupplier) CreateOrder(_ context.Context, _ OrderRequest) (*OrderResult, error) {
	s.orderCalls++
	if s.orderResult == nil {
		return nil, errors.New("order rejected")
	}
	return s.orderResult, nil
}

func (s *stubSupplier) GetOrderStatus(_ context.Context, _ string) (*OrderStatus, error) {
	if s.statusResult == nil {
		return nil, errors.New("unknown order")
	}
	return s.statusResult, nil
}

func (s *stubSupplier) IsHealthy(_ context.Context) error {
	if s.healthDelay > 0 {
		time.Sleep(s.healthDelay)
	}
	return s.healthErr
}

func (s *stubSupplier) RateLimitInfo() RateLimitInfo {
	return RateLimitInfo{Remaining: 90, Limit: 100, ResetTime: time.Now().Add(time.Minute)}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "suppliers-test", Output: io.Discard})
}

func newTestManager(t *testing.T, sups ...Supplier) *Manager {
	t.Helper()
	m, err := NewManager(ManagerParams{
		Config: config.SupplierManagerConfig{RequestTimeout: 5 * time.Second},
		Logger: testLogger(),
	}, sups...)
	require.NoError(t, err)
	return m
}

func supplierProduct(st enums.SupplierType, cost, shipping, estimate string) Product {
	return Product{
		Supplier:          st,
		SupplierProductID: "sp-1",
		Title:             "USB Desk Lamp",
		Cost:              decimal.RequireFromString(cost),
		ShippingCost:      decimal.RequireFromString(shipping),
		DeliveryEstimate:  estimate,
		InStock:           true,
	}
}

func TestSearchProductsPartialFailure(t *testing.T) {
	healthy := &stubSupplier{
		supplierType: enums.SupplierAliExpress,
		searchResult: &SearchResult{
			Products: []Product{supplierProduct(enums.SupplierAliExpress, "10.00", "2.00", "7 days")},
			Total:    1,
		},
	}
	broken := &stubSupplier{
		supplierType: enums.SupplierCJ,
		searchErr:    errors.New("upstream 500"),
	}

	m := newTestManager(t, healthy, broken)
	outcomes := m.SearchProducts(context.Background(), SearchParams{Query: "lamp"})

	require.Len(t, outcomes, 2)
	byType := map[enums.SupplierType]SearchOutcome{}
	for _, o := range outcomes {
		byType[o.Supplier] = o
	}

	assert.NoError(t, byType[enums.SupplierAliExpress].Err)
	assert.Len(t, byType[enums.SupplierAliExpress].Result.Products, 1)
	assert.Error(t, byType[enums.SupplierCJ].Err)
	assert.Empty(t, byType[enums.SupplierCJ].Result.Products)
}

func TestCompareProductRankings(t *testing.T) {
	// aliexpress: cheap but slow; cj: expensive but fast
	ali := &stubSupplier{
		supplierType: enums.SupplierAliExpress,
		searchResult: &SearchResult{
			Products: []Product{supplierProduct(enums.SupplierAliExpress, "10.00", "2.00", "20 days")},
			Total:    1,
		},
	}
	cj := &stubSupplier{
		supplierType: enums.SupplierCJ,
		searchResult: &SearchResult{
			Products: []Product{supplierProduct(enums.SupplierCJ, "18.00", "4.00", "3 days")},
			Total:    1,
		},
	}

	m := newTestManager(t, ali, cj)
	comparison, err := m.CompareProduct(context.Background(), "lamp")
	require.NoError(t, err)
	require.Len(t, comparison.Entries, 2)

	require.NotNil(t, comparison.BestPrice)
	assert.Equal(t, enums.SupplierAliExpress, *comparison.BestPrice)
	require.NotNil(t, comparison.FastestDelivery)
	assert.Equal(t, enums.SupplierCJ, *comparison.FastestDelivery)

	// ali: price 100-1.2=98.8, delivery 100-100=0 -> 59.28
	// cj:  price 100-2.2=97.8, delivery 100-15=85 -> 92.68
	require.NotNil(t, comparison.BestOverall)
	assert.Equal(t, enums.SupplierCJ, *comparison.BestOverall)
}

func TestCompareProductSkipsFailedSuppliers(t *testing.T) {
	broken := &stubSupplier{supplierType: enums.SupplierAliExpress, searchErr: errors.New("down")}
	m := newTestManager(t, broken)

	_, err := m.CompareProduct(context.Background(), "lamp")
	require.Error(t, err)
}

func TestParseDeliveryDays(t *testing.T) {
	assert.Equal(t, 7, ParseDeliveryDays("7 days"))
	assert.Equal(t, 15, ParseDeliveryDays("15-20 days"))
	assert.Equal(t, 3, ParseDeliveryDays("ships in 3 day(s)"))
	assert.Equal(t, 7, ParseDeliveryDays("7 Days"))
	assert.Equal(t, 12, ParseDeliveryDays("12 DAYS express"))
	assert.Equal(t, unknownDeliveryDays, ParseDeliveryDays("unknown"))
	assert.Equal(t, unknownDeliveryDays, ParseDeliveryDays(""))
}

func TestCheckHealthNeverAborts(t *testing.T) {
	healthy := &stubSupplier{supplierType: enums.SupplierAliExpress}
	unhealthy := &stubSupplier{supplierType: enums.SupplierCJ, healthErr: errors.New("timeout")}

	m := newTestManager(t, healthy, unhealthy)
	statuses := m.CheckHealth(context.Background())

	require.Len(t, statuses, 2)
	byType := map[enums.SupplierType]HealthStatus{}
	for _, s := range statuses {
		byType[s.Supplier] = s
	}
	assert.True(t, byType[enums.SupplierAliExpress].Healthy)
	assert.False(t, byType[enums.SupplierCJ].Healthy)
	assert.Equal(t, "timeout", byType[enums.SupplierCJ].Error)
	assert.Equal(t, 100, byType[enums.SupplierCJ].RateLimit.Limit)
}

func TestCheckHealthProbesConcurrently(t *testing.T) {
	slow := &stubSupplier{supplierType: enums.SupplierAliExpress, healthDelay: 150 * time.Millisecond}
	alsoSlow := &stubSupplier{supplierType: enums.SupplierCJ, healthDelay: 150 * time.Millisecond}

	m := newTestManager(t, slow, alsoSlow)
	start := time.Now()
	statuses := m.CheckHealth(context.Background())
	elapsed := time.Since(start)

	require.Len(t, statuses, 2)
	// sequential probes would take at least the sum of both delays
	assert.Less(t, elapsed, 250*time.Millisecond)
}

func TestCreateOrderUnknownSupplier(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateOrder(context.Background(), enums.SupplierAliExpress, OrderRequest{})
	require.Error(t, err)
}

type mapCache struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func (c *mapCache) Get(_ context.Context, supplier, operation, params string) ([]byte, bool) {
	c.gets++
	v, ok := c.entries[supplier+"|"+operation+"|"+params]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, supplier, operation, params string, value []byte) {
	c.sets++
	c.entries[supplier+"|"+operation+"|"+params] = value
}

func TestSearchProductsUsesCache(t *testing.T) {
	supplier := &stubSupplier{
		supplierType: enums.SupplierAliExpress,
		searchResult: &SearchResult{
			Products: []Product{supplierProduct(enums.SupplierAliExpress, "10.00", "0.00", "5 days")},
			Total:    1,
		},
	}
	cache := &mapCache{entries: map[string][]byte{}}
	m, err := NewManager(ManagerParams{
		Config: config.SupplierManagerConfig{RequestTimeout: 5 * time.Second},
		Logger: testLogger(),
		Cache:  cache,
	}, supplier)
	require.NoError(t, err)

	params := SearchParams{Query: "lamp", Page: 1, PageSize: 10}
	first := m.SearchProducts(context.Background(), params)
	second := m.SearchProducts(context.Background(), params)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, 1, cache.sets)
	assert.Len(t, second[0].Result.Products, 1)
}
