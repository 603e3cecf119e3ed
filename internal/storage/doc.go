// Package storage owns the persistent seen-set: the bounded record of load
// ids already admitted into the posting pipeline.
//
// TryAdmit is the single unit of atomicity for deduplication. A separate
// exists-then-insert sequence would race between concurrent discovery
// cycles, so the check and the mark are one INSERT.
package storage
