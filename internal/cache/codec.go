package cache

import (
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// Encode JSON-encodes v and compresses the result. Guild and channel listings are repetitive JSON, so they
// shrink well.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

// Decode reverses Encode into v.
func Decode(in []byte, v any) error {
	b, err := dec.DecodeAll(in, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
