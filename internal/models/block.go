package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Block represents a ledger block
type Block struct {
	Time         string  `json:"time"`
	Data         Payload `json:"data"`
	PreviousHash string  `json:"previousHash"`
	Hash         string  `json:"hash"`
}

// NewBlock creates an unsealed candidate block for the given payload.
// The candidate has no predecessor; its hash is computed against an empty
// previous hash.
func NewBlock(data Payload, now time.Time) Block {
	if data == nil {
		data = Payload{}
	}
	b := Block{
		Time: Millis(now),
		Data: data,
	}
	b.Hash = ComputeHash(b)
	return b
}

// ComputeHash recomputes the digest of a block from its current fields
func ComputeHash(b Block) string {
	sum := sha256.Sum256(hashInput(b))
	return hex.EncodeToString(sum[:])
}

func hashInput(b Block) []byte {
	data, _ := b.Data.Canonical()
	input := make([]byte, 0, len(b.PreviousHash)+len(b.Time)+len(data))
	input = append(input, b.PreviousHash...)
	input = append(input, b.Time...)
	return append(input, data...)
}

// Seal returns a copy of the block linked to the given predecessor hash,
// with its own hash recomputed. The receiver is left untouched.
func (b Block) Seal(previousHash string) Block {
	sealed := b.Copy()
	sealed.PreviousHash = previousHash
	sealed.Hash = ComputeHash(sealed)
	return sealed
}

// Copy returns a deep copy of the block
func (b Block) Copy() Block {
	b.Data = b.Data.Clone()
	return b
}

// Verify reports whether the stored hash matches the recomputed one
func (b Block) Verify() bool {
	return b.Hash == ComputeHash(b)
}

// Millis formats a time as a string of milliseconds since the Unix epoch
func Millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseMillis parses a string of milliseconds since the Unix epoch
func ParseMillis(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
