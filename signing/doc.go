// Package signing provides an apiguard.Codec that wraps the persisted event
// form in a signed JWT, for queues that cross a trust boundary.
//
// Tokens carry no expiry or issued-at claim, so encoding the same event always
// yields the same token.
package signing
