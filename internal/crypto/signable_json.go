// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SignableJSON returns the canonical form of a signed JSON object: the
// "signatures" and "unsigned" members are removed, keys are sorted and no
// insignificant whitespace is emitted.
func SignableJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignableJSON, err)
	}
	if obj == nil {
		return nil, ErrInvalidSignableJSON
	}
	delete(obj, "signatures")
	delete(obj, "unsigned")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("error encoding signable json: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
