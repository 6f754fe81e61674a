/*
Package snapshot carries recorder state across a restart.

A snapshot is the whole recorder (log ring slots plus every metrics day)
tagged with a format Version. The recorder exports a State, Encode turns it
into a framed binary blob, and a Store keeps exactly one current blob.

# Frame Layout

	┌────────┬──────────────────┬──────────────────────────────┐
	│ "TRS1" │ xxhash64 (8, BE) │ zstd(CBOR payload (State))   │
	└────────┴──────────────────┴──────────────────────────────┘

The checksum covers the compressed payload only. CBOR uses core
deterministic encoding and the compressor runs single-threaded, so the same
State always produces the same bytes. Metrics days are mostly zero cells and
compress well.

# Version Mismatch

A State whose Version differs from Version is not an error at this layer.
Decode returns it as-is and the recorder decides what to do (it logs a
warning and starts empty).

# Stores

  - badger: durable, single key in a BadgerDB directory
  - memory: process-local, for tests and ephemeral runs
*/
package snapshot
