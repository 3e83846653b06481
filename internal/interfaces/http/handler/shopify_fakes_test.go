package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	shopifyapp "github.com/stockhaus/backend/internal/application/shopify"
	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// In-memory port implementations backing the shopify handler tests.
// They cover the happy paths and the error injection the handlers need;
// persistence details are exercised in the repository tests.

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

type stubIntegrationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*shopify.Integration
}

func newStubIntegrationRepo() *stubIntegrationRepo {
	return &stubIntegrationRepo{items: make(map[uuid.UUID]*shopify.Integration)}
}

func (r *stubIntegrationRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok || i.TenantID != tenantID {
		return nil, shopify.ErrIntegrationNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *stubIntegrationRepo) FindByStoreURL(_ context.Context, tenantID uuid.UUID, storeURL string) (*shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.items {
		if i.TenantID == tenantID && i.StoreURL == storeURL {
			cp := *i
			return &cp, nil
		}
	}
	return nil, shopify.ErrIntegrationNotFound
}

func (r *stubIntegrationRepo) FindByShopDomain(_ context.Context, shopDomain string) (*shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.items {
		if i.StoreURL == shopDomain {
			cp := *i
			return &cp, nil
		}
	}
	return nil, shopify.ErrIntegrationNotFound
}

func (r *stubIntegrationRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shopify.Integration
	for _, i := range r.items {
		if i.TenantID == tenantID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *stubIntegrationRepo) FindDue(_ context.Context, now time.Time) ([]shopify.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shopify.Integration
	for _, i := range r.items {
		if i.SyncDue(now) {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *stubIntegrationRepo) Save(_ context.Context, integration *shopify.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *integration
	r.items[integration.ID] = &cp
	return nil
}

func (r *stubIntegrationRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok || i.TenantID != tenantID {
		return shopify.ErrIntegrationNotFound
	}
	delete(r.items, id)
	return nil
}

type stubSyncLogRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*shopify.SyncLog
	running map[shopify.EntityType]bool
}

func newStubSyncLogRepo() *stubSyncLogRepo {
	return &stubSyncLogRepo{
		items:   make(map[uuid.UUID]*shopify.SyncLog),
		running: make(map[shopify.EntityType]bool),
	}
}

func (r *stubSyncLogRepo) Create(_ context.Context, log *shopify.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.items[log.ID] = &cp
	return nil
}

func (r *stubSyncLogRepo) Update(_ context.Context, log *shopify.SyncLog) error {
	return r.Create(context.Background(), log)
}

func (r *stubSyncLogRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*shopify.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok || l.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubSyncLogRepo) FindRecent(_ context.Context, tenantID, integrationID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.SyncLog], error) {
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
		out = append(out, *l)
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (r *stubSyncLogRepo) HasRunning(_ context.Context, _ uuid.UUID, entity shopify.EntityType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[entity], nil
}

type stubRecordStore struct {
	mu        sync.Mutex
	products  map[string]*shopify.Product
	orders    map[string]*shopify.Order
	customers map[string]*shopify.Customer
	levels    map[string]*shopify.InventoryLevel
}

func newStubRecordStore() *stubRecordStore {
	return &stubRecordStore{
		products:  make(map[string]*shopify.Product),
		orders:    make(map[string]*shopify.Order),
		customers: make(map[string]*shopify.Customer),
		levels:    make(map[string]*shopify.InventoryLevel),
	}
}

func recordKey(integrationID uuid.UUID, remoteID string) string {
	return integrationID.String() + "/" + remoteID
}

func (s *stubRecordStore) UpsertProduct(_ context.Context, p *shopify.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(p.IntegrationID, p.ShopifyProductID)
	_, existed := s.products[key]
	s.products[key] = p
	return !existed, nil
}

func (s *stubRecordStore) UpsertOrder(_ context.Context, o *shopify.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(o.IntegrationID, o.ShopifyOrderID)
	_, existed := s.orders[key]
	s.orders[key] = o
	return !existed, nil
}

func (s *stubRecordStore) UpsertCustomer(_ context.Context, c *shopify.Customer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(c.IntegrationID, c.ShopifyCustomerID)
	_, existed := s.customers[key]
	s.customers[key] = c
	return !existed, nil
}

func (s *stubRecordStore) UpsertInventoryLevel(_ context.Context, l *shopify.InventoryLevel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(l.IntegrationID, l.InventoryItemID+"@"+l.LocationID)
	_, existed := s.levels[key]
	s.levels[key] = l
	return !existed, nil
}

func (s *stubRecordStore) ListProducts(_ context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Product], error) {
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

func (s *stubRecordStore) ListOrders(_ context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Order], error) {
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

func (s *stubRecordStore) ListCustomers(_ context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Customer], error) {
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

func (s *stubRecordStore) ListInventoryLevels(_ context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.InventoryLevel], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shopify.InventoryLevel
	for _, l := range s.levels {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (s *stubRecordStore) CountByEntity(_ context.Context, integrationID uuid.UUID) (map[shopify.EntityType]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[shopify.EntityType]int64)
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
	for _, l := range s.levels {
		if l.IntegrationID == integrationID {
			counts[shopify.EntityInventory]++
		}
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// Admin API
// ---------------------------------------------------------------------------

type stubIterator struct {
	pages [][]json.RawMessage
	err   error
	pos   int
}

func (it *stubIterator) Next(_ context.Context) ([]json.RawMessage, bool, error) {
	if it.pos < len(it.pages) {
		page := it.pages[it.pos]
		it.pos++
		return page, true, nil
	}
	if it.err != nil {
		err := it.err
		it.err = nil
		return nil, false, err
	}
	return nil, false, nil
}

type stubRemoteClient struct {
	pages    map[shopify.EntityType][][]json.RawMessage
	fetchErr error
	shop     *shopify.ShopInfo
	connErr  error
	lastOpts shopify.FetchOptions
}

func (c *stubRemoteClient) Fetch(_ context.Context, entity shopify.EntityType, opts shopify.FetchOptions) shopify.RecordIterator {
	c.lastOpts = opts
	return &stubIterator{pages: c.pages[entity], err: c.fetchErr}
}

func (c *stubRemoteClient) TestConnection(_ context.Context) (*shopify.ShopInfo, error) {
	if c.connErr != nil {
		return nil, c.connErr
	}
	if c.shop != nil {
		return c.shop, nil
	}
	return &shopify.ShopInfo{Name: "Test Shop", Domain: "acme.myshopify.com", Currency: "USD"}, nil
}

type stubClientFactory struct {
	client *stubRemoteClient
}

func (f *stubClientFactory) ForIntegration(_ *shopify.Integration) shopify.RemoteClient {
	return f.client
}

// ---------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------

type stubStateStore struct {
	mu     sync.Mutex
	states map[string]shopify.OAuthStatePayload
}

func newStubStateStore() *stubStateStore {
	return &stubStateStore{states: make(map[string]shopify.OAuthStatePayload)}
}

func (s *stubStateStore) Put(_ context.Context, state string, payload shopify.OAuthStatePayload, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = payload
	return nil
}

func (s *stubStateStore) Take(_ context.Context, state string) (shopify.OAuthStatePayload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.states[state]
	delete(s.states, state)
	return payload, ok, nil
}

type stubExchanger struct {
	token string
	err   error
}

func (e *stubExchanger) Exchange(_ context.Context, _, _ string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.token, nil
}

type stubAuthorizer struct{}

func (stubAuthorizer) AuthorizeURL(shopURL, _, state string, _ []string) string {
	return "https://" + shopURL + "/admin/oauth/authorize?state=" + state
}

var (
	_ shopify.IntegrationRepository  = (*stubIntegrationRepo)(nil)
	_ shopify.SyncLogRepository      = (*stubSyncLogRepo)(nil)
	_ shopify.RecordStore            = (*stubRecordStore)(nil)
	_ shopify.RemoteClient           = (*stubRemoteClient)(nil)
	_ shopify.ClientFactory          = (*stubClientFactory)(nil)
	_ shopify.OAuthStateStore        = (*stubStateStore)(nil)
	_ shopify.TokenExchanger         = (*stubExchanger)(nil)
	_ shopifyapp.AuthorizeURLBuilder = stubAuthorizer{}
)

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

type shopifyTestEnv struct {
	router   *gin.Engine
	tenantID uuid.UUID

	integrations *stubIntegrationRepo
	syncLogs     *stubSyncLogRepo
	records      *stubRecordStore
	client       *stubRemoteClient
	states       *stubStateStore
	exchanger    *stubExchanger
}

// setupShopifyTestEnv wires the full shopify handler stack on in-memory
// ports and registers the routes the production router exposes
func setupShopifyTestEnv() *shopifyTestEnv {
	gin.SetMode(gin.TestMode)

	env := &shopifyTestEnv{
		tenantID:     uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		integrations: newStubIntegrationRepo(),
		syncLogs:     newStubSyncLogRepo(),
		records:      newStubRecordStore(),
		client:       &stubRemoteClient{},
		states:       newStubStateStore(),
		exchanger:    &stubExchanger{token: "shpat_oauth_token"},
	}

	logger := zap.NewNop()
	factory := &stubClientFactory{client: env.client}

	integrationService := shopifyapp.NewIntegrationService(
		env.integrations, env.syncLogs, env.records,
		factory, env.states, env.exchanger, stubAuthorizer{},
		shopifyapp.OAuthSettings{
			RedirectURI: "https://app.stockhaus.com/api/v1/shopify/oauth/callback",
			Scopes:      []string{"read_products", "read_orders"},
		},
		10*time.Minute,
		logger,
	)
	syncService := shopifyapp.NewSyncService(
		env.integrations, env.syncLogs, env.records, factory, logger,
	)
	webhookService := shopifyapp.NewWebhookService(env.integrations, env.syncLogs, env.records, logger)

	integrationHandler := NewShopifyIntegrationHandler(integrationService)
	syncHandler := NewShopifySyncHandler(syncService, integrationService)
	webhookHandler := NewShopifyWebhookHandler(webhookService)
	oauthHandler := NewShopifyOAuthHandler(integrationService)

	router := gin.New()
	authed := router.Group("/api/v1/shopify")
	authed.Use(func(c *gin.Context) {
		setJWTContext(c, env.tenantID, uuid.New())
		c.Next()
	})
	authed.POST("/connect", integrationHandler.Connect)
	authed.DELETE("/connect", integrationHandler.DisconnectStore)
	authed.GET("/status", integrationHandler.ConnectionStatus)
	authed.GET("/integrations", integrationHandler.List)
	authed.GET("/integrations/:id", integrationHandler.GetByID)
	authed.DELETE("/integrations/:id", integrationHandler.Delete)
	authed.GET("/integrations/:id/status", integrationHandler.Status)
	authed.PUT("/integrations/:id/settings", integrationHandler.UpdateSettings)
	authed.POST("/integrations/:id/pause", integrationHandler.Pause)
	authed.POST("/integrations/:id/resume", integrationHandler.Resume)
	authed.POST("/integrations/:id/test", integrationHandler.TestConnection)
	authed.POST("/sync", syncHandler.TriggerSync)
	authed.GET("/sync-logs", syncHandler.ListSyncLogs)
	authed.GET("/sync-logs/:id", syncHandler.GetSyncLog)
	authed.GET("/products", syncHandler.ListProducts)
	authed.GET("/orders", syncHandler.ListOrders)
	authed.GET("/customers", syncHandler.ListCustomers)
	authed.GET("/inventory", syncHandler.ListInventory)
	authed.POST("/oauth/initiate", oauthHandler.Initiate)

	// The webhook and OAuth callback are reached without a JWT
	public := router.Group("/api/v1/shopify")
	public.POST("/webhook", webhookHandler.Receive)
	public.GET("/oauth/callback", oauthHandler.Callback)

	env.router = router
	return env
}

// seedConnectedStore persists a connected integration directly into the
// repository and returns it
func (env *shopifyTestEnv) seedConnectedStore(storeURL, webhookSecret string) *shopify.Integration {
	integration, err := shopify.NewIntegration(env.tenantID, storeURL, "Acme")
	if err != nil {
		panic(err)
	}
	if err := integration.Connect("shpat_test_token", webhookSecret); err != nil {
		panic(err)
	}
	if err := env.integrations.Save(context.Background(), integration); err != nil {
		panic(err)
	}
	return integration
}
