// Package keystore resolves API key identifiers from Redis.
//
// Records are stored as JSON under "<prefix>:apikey:<id>". Store is
// read-mostly: Put exists so hosts can mirror keys from their system of
// record, but issuing and revoking keys is the host's job.
package keystore
