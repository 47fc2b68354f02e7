package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlock(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	data := Payload{"metadata": "authentic"}

	b := NewBlock(data, now)

	sum := sha256.Sum256([]byte("" + "1700000000123" + `{"metadata":"authentic"}`))
	assert.Equal(t, "1700000000123", b.Time)
	assert.Empty(t, b.PreviousHash)
	assert.Equal(t, hex.EncodeToString(sum[:]), b.Hash)
	assert.True(t, b.Verify())
}

func TestNewBlock_NilPayload(t *testing.T) {
	b := NewBlock(nil, time.UnixMilli(1))

	sum := sha256.Sum256([]byte("1{}"))
	assert.Equal(t, hex.EncodeToString(sum[:]), b.Hash)
	assert.NotNil(t, b.Data)
}

func TestComputeHash_KeyOrderIrrelevant(t *testing.T) {
	var first, second Payload
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":{"y":true,"x":[1,2]}}`), &first))
	require.NoError(t, json.Unmarshal([]byte(`{"a":{"x":[1,2],"y":true},"b":1}`), &second))

	b1 := Block{Time: "5", Data: first, PreviousHash: "abc"}
	b2 := Block{Time: "5", Data: second, PreviousHash: "abc"}

	assert.Equal(t, ComputeHash(b1), ComputeHash(b2))
}

func TestPayload_Canonical(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "sorted keys", raw: `{"z":"1","a":"2"}`, want: `{"a":"2","z":"1"}`},
		{name: "large integers kept", raw: `{"n":12345678901234567890}`, want: `{"n":12345678901234567890}`},
		{name: "decimal form kept", raw: `{"n":1.50}`, want: `{"n":1.50}`},
		{name: "no html escaping", raw: `{"code":"a<b && c>d"}`, want: `{"code":"a<b && c>d"}`},
		{name: "nested objects sorted", raw: `{"o":{"b":null,"a":[{"d":1,"c":2}]}}`, want: `{"o":{"a":[{"c":2,"d":1}],"b":null}}`},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var p Payload
			require.NoError(t, json.Unmarshal([]byte(test.raw), &p))

			got, err := p.Canonical()
			require.NoError(t, err)
			assert.Equal(t, test.want, string(got))
		})
	}

	t.Run("nil payload", func(t *testing.T) {
		var p Payload
		got, err := p.Canonical()
		require.NoError(t, err)
		assert.Equal(t, "{}", string(got))
	})
}

func TestBlock_HashSurvivesJSONRoundTrip(t *testing.T) {
	var data Payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":1e3,"id":9007199254740993}`), &data))
	b := NewBlock(data, time.UnixMilli(42)).Seal("prev")

	encoded, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Block
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	assert.True(t, decoded.Verify())
	assert.Equal(t, b.Hash, decoded.Hash)
}

func TestBlock_Seal(t *testing.T) {
	candidate := NewBlock(Payload{"k": "v"}, time.UnixMilli(10))

	sealed := candidate.Seal("parent")

	assert.Equal(t, "parent", sealed.PreviousHash)
	assert.True(t, sealed.Verify())
	assert.NotEqual(t, candidate.Hash, sealed.Hash)
	assert.Empty(t, candidate.PreviousHash, "candidate must not be modified")

	sealed.Data["k"] = "changed"
	assert.Equal(t, "v", candidate.Data["k"], "sealed copy must not alias candidate data")
}

func TestBlock_VerifyDetectsTampering(t *testing.T) {
	b := NewBlock(Payload{"metadata": "authentic"}, time.UnixMilli(10)).Seal("parent")
	require.True(t, b.Verify())

	b.Data["metadata"] = "tampered"
	assert.False(t, b.Verify())
}

func TestPayload_With(t *testing.T) {
	p := Payload{"nested": map[string]interface{}{"a": "b"}}

	stamped := p.With("confirmedBy", "validator")

	assert.Equal(t, "validator", stamped["confirmedBy"])
	assert.NotContains(t, p, "confirmedBy")

	stamped["nested"].(map[string]interface{})["a"] = "c"
	assert.Equal(t, "b", p["nested"].(map[string]interface{})["a"])
}

func TestParseMillis(t *testing.T) {
	ms, err := ParseMillis(Millis(time.UnixMilli(1234)))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), ms)

	_, err = ParseMillis("soon")
	assert.Error(t, err)
}
