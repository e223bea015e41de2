// Package apiguard emits an immutable event each time an API key successfully
// authenticates a request, and delivers it to registered listeners.
//
// The package is designed for concurrent server workloads: [Engine], [Bus] and
// [QueuedDispatcher] are safe to call from multiple goroutines once built.
//
// # Architecture boundaries
//
// apiguard owns the [APIKeyAuthenticated] value, the [Dispatcher] contract, and
// the identifier-only persisted form ([PersistedEvent]) used whenever an event
// leaves the calling goroutine. Resolving an identifier back to a full [APIKey]
// is delegated to an injected [KeyLookup]. Redis transport and lookup adapters
// live in the keystore and queue sub-packages.
//
// # What this package must NOT do
//
//   - Validate API keys. Authentication has already succeeded when an event is built.
//   - Create, rotate, or revoke key records.
//   - Carry the inbound request across an asynchronous boundary. Queued listeners
//     only ever see a rehydrated event whose Request is nil.
//   - Retry failed listeners or failed rehydration.
package apiguard
