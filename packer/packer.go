// Package packer encodes values stored as blobs by the access log.
package packer

import (
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMessage msgpack-encodes v.
func EncodeMessage(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// DecodeMessage decodes a msgpack blob produced by EncodeMessage into v.
// An empty blob leaves v untouched.
func DecodeMessage(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return msgpack.Unmarshal(raw, v)
}
