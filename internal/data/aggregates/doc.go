// Package aggregates contains the gorm-backed implementations of the domain
// aggregate contracts.
//
// The wish aggregate composes the wish and memory repos from internal/data/repos
// and owns the transaction for draft creation, publish and draft expiry.
package aggregates
