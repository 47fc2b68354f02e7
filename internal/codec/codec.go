package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec encodes values as JSON and compresses them with zstd. Decoding keeps
// numbers in their source form.
type Codec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// New creates a new Codec.
func New() *Codec {

	// The options are static, so failing here is a programming error.
	compressor, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic(err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}

	c := Codec{
		compressor:   compressor,
		decompressor: decompressor,
	}

	return &c
}

func (c *Codec) Encode(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func (c *Codec) Compress(data []byte) []byte {
	return c.compressor.EncodeAll(data, nil)
}

func (c *Codec) Marshal(value interface{}) ([]byte, error) {
	data, err := c.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("could not encode value: %w", err)
	}
	return c.Compress(data), nil
}

func (c *Codec) Decode(data []byte, value interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(value)
}

func (c *Codec) Decompress(compressed []byte) ([]byte, error) {
	return c.decompressor.DecodeAll(compressed, nil)
}

func (c *Codec) Unmarshal(compressed []byte, value interface{}) error {
	data, err := c.Decompress(compressed)
	if err != nil {
		return fmt.Errorf("could not decompress data: %w", err)
	}
	err = c.Decode(data, value)
	if err != nil {
		return fmt.Errorf("could not decode value: %w", err)
	}
	return nil
}
