// Package integration contains the Integration bounded context.
// This context keeps the local product catalog consistent with the
// marketplaces it is listed on (Reverb, Shopify, eBay, Vintage & Rare).
//
// Key concepts:
//   - SnapshotProvider / PlatformActionAdapter: Port interfaces for marketplace adapters
//   - DivergenceRecord: A detected difference between remote and local listing state
//   - SyncEvent: The durable, append-only audit record of one divergence
//   - PlatformLink: The locally believed state of one marketplace listing
//   - ReconcileLock: Ownership rule preventing concurrent reconciliation of one scope
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
