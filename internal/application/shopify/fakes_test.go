package shopify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// In-Memory Fakes
// ---------------------------------------------------------------------------

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type memIntegrationRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]shopify.Integration
	saveErr error
}

func newMemIntegrationRepo() *memIntegrationRepo {
	return &memIntegrationRepo{items: make(map[uuid.UUID]shopify.Integration)}
}

func (r *memIntegrationRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.items[id]; ok && i.TenantID == tenantID {
		copied := i
		return &copied, nil
	}
	return nil, shopify.ErrIntegrationNotFound
}

func (r *memIntegrationRepo) FindByStoreURL(ctx context.Context, tenantID uuid.UUID, storeURL string) (*shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.items {
		if i.TenantID == tenantID && i.StoreURL == storeURL {
			copied := i
			return &copied, nil
		}
	}
	return nil, shopify.ErrIntegrationNotFound
}

func (r *memIntegrationRepo) FindByShopDomain(ctx context.Context, shopDomain string) (*shopify.Integration, error) {
	normalized, err := shopify.NormalizeStoreURL(shopDomain)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.items {
		if i.StoreURL == normalized {
			copied := i
			return &copied, nil
		}
	}
	return nil, shopify.ErrIntegrationNotFound
}

func (r *memIntegrationRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shopify.Integration
	for _, i := range r.items {
		if i.TenantID == tenantID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *memIntegrationRepo) FindDue(ctx context.Context, now time.Time) ([]shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shopify.Integration
	for _, i := range r.items {
		if i.SyncDue(now) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *memIntegrationRepo) Save(ctx context.Context, integration *shopify.Integration) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[integration.ID] = *integration
	return nil
}

func (r *memIntegrationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.items[id]; !ok || i.TenantID != tenantID {
		return shopify.ErrIntegrationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memIntegrationRepo) get(id uuid.UUID) shopify.Integration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

var _ shopify.IntegrationRepository = (*memIntegrationRepo)(nil)

type memSyncLogRepo struct {
	mu         sync.Mutex
	items      map[uuid.UUID]shopify.SyncLog
	runningFor map[shopify.EntityType]bool
}

func newMemSyncLogRepo() *memSyncLogRepo {
	return &memSyncLogRepo{
		items:      make(map[uuid.UUID]shopify.SyncLog),
		runningFor: make(map[shopify.EntityType]bool),
	}
}

func (r *memSyncLogRepo) Create(ctx context.Context, log *shopify.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[log.ID] = *log
	return nil
}

func (r *memSyncLogRepo) Update(ctx context.Context, log *shopify.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[log.ID]; !ok {
		return shared.ErrNotFound
	}
	r.items[log.ID] = *log
	return nil
}

func (r *memSyncLogRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shopify.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.items[id]; ok && l.TenantID == tenantID {
		copied := l
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memSyncLogRepo) FindRecent(ctx context.Context, tenantID, integrationID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.SyncLog], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shopify.SyncLog
	for _, l := range r.items {
		if l.TenantID != tenantID {
			continue
		}
		if integrationID != uuid.Nil && l.IntegrationID != integrationID {
			continue
		}
		out = append(out, l)
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (r *memSyncLogRepo) HasRunning(ctx context.Context, integrationID uuid.UUID, entity shopify.EntityType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runningFor[entity], nil
}

func (r *memSyncLogRepo) get(id uuid.UUID) shopify.SyncLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

var _ shopify.SyncLogRepository = (*memSyncLogRepo)(nil)

type memRecordStore struct {
	mu         sync.Mutex
	products   map[string]*shopify.Product
	orders     map[string]*shopify.Order
	customers  map[string]*shopify.Customer
	inventory  map[string]*shopify.InventoryLevel
	upsertErr  error
	upsertPass int
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{
		products:  make(map[string]*shopify.Product),
		orders:    make(map[string]*shopify.Order),
		customers: make(map[string]*shopify.Customer),
		inventory: make(map[string]*shopify.InventoryLevel),
	}
}

func (s *memRecordStore) failCheck() error {
	if s.upsertErr != nil {
		if s.upsertPass > 0 {
			s.upsertPass--
			return nil
		}
		return s.upsertErr
	}
	return nil
}

func (s *memRecordStore) UpsertProduct(ctx context.Context, p *shopify.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck(); err != nil {
		return false, err
	}
	key := p.IntegrationID.String() + "/" + p.ShopifyProductID
	_, exists := s.products[key]
	s.products[key] = p
	return !exists, nil
}

func (s *memRecordStore) UpsertOrder(ctx context.Context, o *shopify.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck(); err != nil {
		return false, err
	}
	key := o.IntegrationID.String() + "/" + o.ShopifyOrderID
	_, exists := s.orders[key]
	s.orders[key] = o
	return !exists, nil
}

func (s *memRecordStore) UpsertCustomer(ctx context.Context, c *shopify.Customer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck(); err != nil {
		return false, err
	}
	key := c.IntegrationID.String() + "/" + c.ShopifyCustomerID
	_, exists := s.customers[key]
	s.customers[key] = c
	return !exists, nil
}

func (s *memRecordStore) UpsertInventoryLevel(ctx context.Context, l *shopify.InventoryLevel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCheck(); err != nil {
		return false, err
	}
	key := l.IntegrationID.String() + "/" + l.InventoryItemID + "/" + l.LocationID
	_, exists := s.inventory[key]
	s.inventory[key] = l
	return !exists, nil
}

func (s *memRecordStore) ListProducts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Product], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shopify.Product
	for _, p := range s.products {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (s *memRecordStore) ListOrders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shopify.Order
	for _, o := range s.orders {
		if o.TenantID == tenantID {
			out = append(out, *o)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (s *memRecordStore) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Customer], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shopify.Customer
	for _, c := range s.customers {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (s *memRecordStore) ListInventoryLevels(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.InventoryLevel], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shopify.InventoryLevel
	for _, l := range s.inventory {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (s *memRecordStore) CountByEntity(ctx context.Context, integrationID uuid.UUID) (map[shopify.EntityType]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[shopify.EntityType]int64{
		shopify.EntityProducts:  0,
		shopify.EntityOrders:    0,
		shopify.EntityCustomers: 0,
		shopify.EntityInventory: 0,
	}
	for _, p := range s.products {
		if p.IntegrationID == integrationID {
			counts[shopify.EntityProducts]++
		}
	}
	for _, o := range s.orders {
		if o.IntegrationID == integrationID {
			counts[shopify.EntityOrders]++
		}
	}
	for _, c := range s.customers {
		if c.IntegrationID == integrationID {
			counts[shopify.EntityCustomers]++
		}
	}
	for _, l := range s.inventory {
		if l.IntegrationID == integrationID {
			counts[shopify.EntityInventory]++
		}
	}
	return counts, nil
}

var _ shopify.RecordStore = (*memRecordStore)(nil)

// sliceIterator replays canned pages, optionally failing afterwards
type sliceIterator struct {
	pages [][]json.RawMessage
	err   error
	pos   int
}

func (it *sliceIterator) Next(ctx context.Context) ([]json.RawMessage, bool, error) {
	if it.pos >= len(it.pages) {
		if it.err != nil {
			return nil, false, it.err
		}
		return nil, false, nil
	}
	page := it.pages[it.pos]
	it.pos++
	more := it.pos < len(it.pages) || it.err != nil
	return page, more, nil
}

// fakeClient serves canned pages per entity and records fetch options
type fakeClient struct {
	mu       sync.Mutex
	pages    map[shopify.EntityType][][]json.RawMessage
	fetchErr map[shopify.EntityType]error
	seenOpts map[shopify.EntityType]shopify.FetchOptions
	shop     *shopify.ShopInfo
	connErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages:    make(map[shopify.EntityType][][]json.RawMessage),
		fetchErr: make(map[shopify.EntityType]error),
		seenOpts: make(map[shopify.EntityType]shopify.FetchOptions),
		shop:     &shopify.ShopInfo{Name: "Test Shop", Domain: "test.myshopify.com", Currency: "USD"},
	}
}

func (c *fakeClient) Fetch(ctx context.Context, entity shopify.EntityType, opts shopify.FetchOptions) shopify.RecordIterator {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seenOpts[entity] = opts
	return &sliceIterator{pages: c.pages[entity], err: c.fetchErr[entity]}
}

func (c *fakeClient) TestConnection(ctx context.Context) (*shopify.ShopInfo, error) {
	if c.connErr != nil {
		return nil, c.connErr
	}
	return c.shop, nil
}

var _ shopify.RemoteClient = (*fakeClient)(nil)

type fakeClientFactory struct {
	client *fakeClient
}

func (f *fakeClientFactory) ForIntegration(integration *shopify.Integration) shopify.RemoteClient {
	return f.client
}

var _ shopify.ClientFactory = (*fakeClientFactory)(nil)

type memStateStore struct {
	mu     sync.Mutex
	states map[string]shopify.OAuthStatePayload
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[string]shopify.OAuthStatePayload)}
}

func (s *memStateStore) Put(ctx context.Context, state string, payload shopify.OAuthStatePayload, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = payload
	return nil
}

func (s *memStateStore) Take(ctx context.Context, state string) (shopify.OAuthStatePayload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	return payload, ok, nil
}

var _ shopify.OAuthStateStore = (*memStateStore)(nil)

type fakeExchanger struct {
	token string
	err   error

	gotShop string
	gotCode string
}

func (e *fakeExchanger) Exchange(ctx context.Context, shopURL, code string) (string, error) {
	e.gotShop = shopURL
	e.gotCode = code
	if e.err != nil {
		return "", e.err
	}
	return e.token, nil
}

var _ shopify.TokenExchanger = (*fakeExchanger)(nil)

type fakeAuthorizer struct {
	gotShop  string
	gotState string
}

func (a *fakeAuthorizer) AuthorizeURL(shopURL, redirectURI, state string, scopes []string) string {
	a.gotShop = shopURL
	a.gotState = state
	return "https://" + shopURL + "/admin/oauth/authorize?state=" + state
}

var _ AuthorizeURLBuilder = (*fakeAuthorizer)(nil)
