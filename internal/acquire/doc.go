// Package acquire turns a list of locations into a costmatrix.Matrix of real
// road costs from the Google Routes API.
//
// The full N×N matrix is split into origin×destination tiles of at most
// BatchSize² elements. Tiles run concurrently (errgroup, bounded by
// Concurrency), each behind a shared token bucket, with retries on network
// errors, 429 and 5xx. Identical tiles requested concurrently by different
// callers are coalesced with singleflight. Every element lands in one shared
// costmatrix.Builder; elements the service reports as ROUTE_NOT_FOUND become
// invalid entries, and pairs with no answer at all are left to the builder's
// MissingPolicy.
//
// An optional leg cache is consulted before any request and refreshed with
// the legs fetched.
package acquire
