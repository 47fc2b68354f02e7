package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	// sha256("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Address("hello"))
}

func TestIsAddress(t *testing.T) {
	assert.True(t, IsAddress(Address("hello")))
	assert.False(t, IsAddress(""))
	assert.False(t, IsAddress("2cf24dba"))
	assert.False(t, IsAddress(strings.Repeat("zz", 32)))
}

func TestNewAccount(t *testing.T) {
	account, err := NewAccount()
	require.NoError(t, err)

	assert.Len(t, account.PrivateKey, 2*SecretSize)
	assert.Len(t, account.Address, 64)
	assert.NoError(t, Verify(account.Address, account.PrivateKey))

	other, err := NewAccount()
	require.NoError(t, err)
	assert.NotEqual(t, account.PrivateKey, other.PrivateKey)
}

func TestVerify(t *testing.T) {
	account, err := NewAccount()
	require.NoError(t, err)

	tests := []struct {
		name    string
		address string
		secret  string
	}{
		{name: "empty address", address: "", secret: account.PrivateKey},
		{name: "empty secret", address: account.Address, secret: ""},
		{name: "wrong secret", address: account.Address, secret: "guess"},
		{name: "wrong address", address: Address("other"), secret: account.PrivateKey},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, Verify(test.address, test.secret), ErrUnauthenticated)
		})
	}
}

func TestValidatorSet(t *testing.T) {
	a := Address("a")
	b := Address("b")

	set := NewValidatorSet(b, "  ", a, a)

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Authorized(a))
	assert.True(t, set.Authorized(b))
	assert.False(t, set.Authorized(Address("c")))
	assert.False(t, set.Authorized(""))

	want := []string{a, b}
	if b < a {
		want = []string{b, a}
	}
	assert.Equal(t, want, set.Addresses())

	t.Run("empty set authorizes nobody", func(t *testing.T) {
		assert.False(t, NewValidatorSet().Authorized(a))
	})
}
