package auth

import (
	"sort"
	"strings"
)

// ValidatorSet is a fixed allow-list of addresses that may confirm blocks
type ValidatorSet struct {
	addresses map[string]struct{}
}

// NewValidatorSet creates an allow-list from the given addresses.
// Addresses are compared case-insensitively; empty entries are ignored.
func NewValidatorSet(addresses ...string) *ValidatorSet {
	v := &ValidatorSet{addresses: make(map[string]struct{}, len(addresses))}
	for _, a := range addresses {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		v.addresses[a] = struct{}{}
	}
	return v
}

// Authorized reports whether the address is on the allow-list
func (v *ValidatorSet) Authorized(address string) bool {
	_, ok := v.addresses[strings.ToLower(address)]
	return ok
}

// Addresses returns the allow-listed addresses in sorted order
func (v *ValidatorSet) Addresses() []string {
	out := make([]string, 0, len(v.addresses))
	for a := range v.addresses {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of allow-listed addresses
func (v *ValidatorSet) Len() int {
	return len(v.addresses)
}
