// Package shared holds code used across packages that belongs to no
// single layer.
//
// # Structure
//
//   - testutil: log capture and dataset fixtures for tests
//
// Only test helpers and generic utilities with no domain logic belong here.
package shared
