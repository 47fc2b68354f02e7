// Package ledger implements an append-only, hash-linked chain of blocks with
// a propose/confirm workflow gated by a validator allow-list.
//
// Each block's hash commits to its predecessor's hash, so modifying any block
// invalidates every block after it. The ledger checks the whole chain before
// every operation and, if a block fails verification, truncates the chain at
// that block. This provides tamper evidence, not tamper repair: discarded
// blocks are never reconciled or resurrected.
//
// Proposals are staged in an in-memory pool that is lost on restart. A
// confirmation by an allow-listed validator seals the pool in submission
// order. Confirmation is authorization by a single identity, not agreement
// between parties.
package ledger
