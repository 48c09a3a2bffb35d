package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// blob columns (device keys, recipients, replies, forwarding chains) are
// CBOR encoded with core deterministic options so equal values produce equal
// bytes.
var cborEnc = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func encodeBlob(v any) ([]byte, error) {
	b, err := cborEnc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingBlob, err)
	}
	return b, nil
}

func decodeBlob(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := cbor.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingBlob, err)
	}
	return nil
}
