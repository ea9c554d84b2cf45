// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: shared columns and the optimistic lock version
//   - catalog.go: products
//   - order.go: orders and their line items
//   - cart.go: cart lines
//   - identity.go: users
//   - outbox.go: outbox pattern model for event delivery
package models
