package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// Cursor Pagination
// ---------------------------------------------------------------------------

// PageIterator walks one Admin API collection page by page. The next
// cursor comes from the rel="next" entry of the Link response header;
// once a cursor is in play the API rejects filter params, so only the
// limit is carried forward.
type PageIterator struct {
	client *Client
	path   string
	// key is the collection field in the response document,
	// e.g. "products" in {"products": [...]}
	key    string
	params url.Values

	pageInfo  string
	pageCount int
	done      bool
}

func newPageIterator(client *Client, path, key string, params url.Values) *PageIterator {
	return &PageIterator{
		client: client,
		path:   path,
		key:    key,
		params: params,
	}
}

// Next fetches one page. It returns false once the collection is
// exhausted; a non-nil error means the run must stop.
func (it *PageIterator) Next(ctx context.Context) ([]json.RawMessage, bool, error) {
	if it.done {
		return nil, false, nil
	}
	if it.pageCount >= it.client.config.MaxPages {
		it.done = true
		return nil, false, fmt.Errorf("%w: %s after %d pages",
			shopify.ErrTooManyPages, it.path, it.pageCount)
	}

	query := it.query()
	body, header, err := it.client.get(ctx, it.path, query)
	if err != nil {
		it.done = true
		return nil, false, err
	}
	it.pageCount++

	items, err := decodeCollection(body, it.key)
	if err != nil {
		it.done = true
		return nil, false, err
	}

	it.pageInfo = extractNextPageInfo(header.Get("Link"))
	if it.pageInfo == "" {
		it.done = true
	}
	if len(items) == 0 {
		it.done = true
		return nil, false, nil
	}
	return items, true, nil
}

// query builds the parameters for the next request. After the first
// page only limit and the cursor survive.
func (it *PageIterator) query() url.Values {
	if it.pageInfo == "" {
		return it.params
	}
	query := url.Values{}
	if limit := it.params.Get("limit"); limit != "" {
		query.Set("limit", limit)
	}
	query.Set("page_info", it.pageInfo)
	return query
}

// Ensure PageIterator implements RecordIterator
var _ shopify.RecordIterator = (*PageIterator)(nil)

// decodeCollection pulls the named array out of a response document
func decodeCollection(body []byte, key string) ([]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", shopify.ErrInvalidResponse, err)
	}
	raw, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q field", shopify.ErrInvalidResponse, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not an array", shopify.ErrInvalidResponse, key)
	}
	return items, nil
}

// extractNextPageInfo parses the page_info cursor out of a Link header:
//
//	<https://x.myshopify.com/admin/api/2024-10/products.json?page_info=abc&limit=250>; rel="next"
//
// An absent header or one without a rel="next" entry returns "".
func extractNextPageInfo(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end <= start {
			continue
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}

// ---------------------------------------------------------------------------
// Inventory Iterator
// ---------------------------------------------------------------------------

// inventoryIterator resolves the store's locations first, then pages
// inventory levels for all of them. Shopify caps location_ids at 50
// per request.
type inventoryIterator struct {
	client *Client
	params url.Values

	inner *PageIterator
}

const maxLocationIDs = 50

func newInventoryIterator(client *Client, params url.Values) *inventoryIterator {
	return &inventoryIterator{client: client, params: params}
}

func (it *inventoryIterator) Next(ctx context.Context) ([]json.RawMessage, bool, error) {
	if it.inner == nil {
		locationIDs, err := it.fetchLocationIDs(ctx)
		if err != nil {
			return nil, false, err
		}
		if len(locationIDs) == 0 {
			return nil, false, nil
		}
		if len(locationIDs) > maxLocationIDs {
			locationIDs = locationIDs[:maxLocationIDs]
		}

		params := url.Values{}
		if limit := it.params.Get("limit"); limit != "" {
			params.Set("limit", limit)
		}
		if min := it.params.Get("updated_at_min"); min != "" {
			params.Set("updated_at_min", min)
		}
		params.Set("location_ids", strings.Join(locationIDs, ","))
		it.inner = newPageIterator(it.client, "inventory_levels.json", "inventory_levels", params)
	}
	return it.inner.Next(ctx)
}

func (it *inventoryIterator) fetchLocationIDs(ctx context.Context) ([]string, error) {
	body, _, err := it.client.get(ctx, "locations.json", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Locations []struct {
			ID json.Number `json:"id"`
		} `json:"locations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shopify.ErrInvalidResponse, err)
	}
	ids := make([]string, 0, len(resp.Locations))
	for _, loc := range resp.Locations {
		ids = append(ids, loc.ID.String())
	}
	return ids, nil
}

var _ shopify.RecordIterator = (*inventoryIterator)(nil)

// ---------------------------------------------------------------------------
// Trivial Iterators
// ---------------------------------------------------------------------------

// emptyIterator yields nothing. Used when an integration has no access
// token so a sync run completes as a no-op.
type emptyIterator struct{}

func (emptyIterator) Next(context.Context) ([]json.RawMessage, bool, error) {
	return nil, false, nil
}

// errorIterator fails on first use
type errorIterator struct{ err error }

func (it errorIterator) Next(context.Context) ([]json.RawMessage, bool, error) {
	return nil, false, it.err
}

var (
	_ shopify.RecordIterator = emptyIterator{}
	_ shopify.RecordIterator = errorIterator{}
)
