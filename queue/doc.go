// Package queue moves encoded authentication events through a Redis list.
//
// A [Publisher] appends payloads with RPUSH and is used as the
// apiguard.Enqueuer of an engine in external dispatch mode. A [Worker] pops
// them with BLPOP, rehydrates each event through an apiguard.KeyLookup, and
// dispatches it to local listeners.
//
// # What this package must NOT do
//
//   - Retry failed deliveries or park them in a dead-letter list. Failures are
//     reported through the error handler and the worker moves on.
//   - Carry request data. Only the persisted event form is queued.
package queue
