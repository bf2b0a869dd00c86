// Package inventory provides the collaborators that persist submitted
// products: a PostgreSQL store and a client for a remote inventory API.
// Both implement core.InventoryClient.
package inventory
