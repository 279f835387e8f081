// Package codec provides the JSON codec shared by providers, the repairer and
// the envelope validator.
package codec

import "github.com/bytedance/sonic"

// Codec encodes and decodes JSON.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Valid(data []byte) bool
}

// New returns the default codec. It is std-compatible: map keys are sorted and
// HTML is escaped the way encoding/json does.
func New() Codec {
	return sonic.ConfigStd
}
