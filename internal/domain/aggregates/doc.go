// Package aggregates defines the wish write boundary: draft creation, the
// draft-to-published transition and draft expiry.
//
// Contracts here carry no persistence or transport types.
package aggregates
