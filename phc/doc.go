// Package phc implements memory-hard hashing and verification of refresh
// secrets with Argon2id, encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<digest>
//
// The encoded string is self-describing: verification reads the cost
// parameters and salt back out of the hash, so stored hashes remain
// verifiable after the configured parameters change. [Hasher.NeedsRehash]
// reports whether a stored hash was produced with weaker parameters than
// the current configuration.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. It never stores or
// retrieves secrets, and it imports no other authplane package.
package phc
