package shopify

// ---------------------------------------------------------------------------
// Topic represents a supported Shopify webhook topic
// ---------------------------------------------------------------------------

// Topic represents a supported Shopify webhook topic
type Topic string

const (
	// TopicProductsCreate is emitted when a product is created
	TopicProductsCreate Topic = "products/create"
	// TopicProductsUpdate is emitted when a product is updated
	TopicProductsUpdate Topic = "products/update"
	// TopicOrdersCreate is emitted when an order is created
	TopicOrdersCreate Topic = "orders/create"
	// TopicOrdersUpdated is emitted when an order is updated
	TopicOrdersUpdated Topic = "orders/updated"
	// TopicCustomersCreate is emitted when a customer is created
	TopicCustomersCreate Topic = "customers/create"
	// TopicCustomersUpdate is emitted when a customer is updated
	TopicCustomersUpdate Topic = "customers/update"
	// TopicInventoryLevelsUpdate is emitted when an inventory level changes
	TopicInventoryLevelsUpdate Topic = "inventory_levels/update"
)

// ParseTopic maps a topic header value onto a supported topic.
// Unsupported topics return false; callers acknowledge and drop them.
func ParseTopic(raw string) (Topic, bool) {
	t := Topic(raw)
	switch t {
	case TopicProductsCreate, TopicProductsUpdate,
		TopicOrdersCreate, TopicOrdersUpdated,
		TopicCustomersCreate, TopicCustomersUpdate,
		TopicInventoryLevelsUpdate:
		return t, true
	default:
		return "", false
	}
}

// String returns the string representation of Topic
func (t Topic) String() string {
	return string(t)
}

// Entity returns the entity type a topic's payload belongs to
func (t Topic) Entity() EntityType {
	switch t {
	case TopicProductsCreate, TopicProductsUpdate:
		return EntityProducts
	case TopicOrdersCreate, TopicOrdersUpdated:
		return EntityOrders
	case TopicCustomersCreate, TopicCustomersUpdate:
		return EntityCustomers
	case TopicInventoryLevelsUpdate:
		return EntityInventory
	default:
		return ""
	}
}

// SupportedTopics returns every topic the webhook endpoint accepts
func SupportedTopics() []Topic {
	return []Topic{
		TopicProductsCreate,
		TopicProductsUpdate,
		TopicOrdersCreate,
		TopicOrdersUpdated,
		TopicCustomersCreate,
		TopicCustomersUpdate,
		TopicInventoryLevelsUpdate,
	}
}
