package redisx

import "time"

const (
	// Bearer token per browser client: storefront:token:{client_id} -> jwt
	KeyToken = "storefront:token:%s"

	// Cart snapshot per browser client: storefront:cart:{client_id} -> JSON lines
	KeyCart = "storefront:cart:%s"

	// Cached product listing: storefront:catalog:{variant} (all | category:x | brand:x)
	KeyCatalog     = "storefront:catalog:%s"
	KeyCatalogScan = "storefront:catalog:*"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLToken   = 7 * 24 * time.Hour
	TTLCart    = 30 * 24 * time.Hour
	TTLCatalog = time.Minute
	TTLDedup   = 48 * time.Hour
)
