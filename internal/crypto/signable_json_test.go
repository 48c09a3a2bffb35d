// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignableJSON_StripsSignaturesAndSortsKeys(t *testing.T) {
	raw := []byte(`{
		"user_id": "@alice:example.org",
		"device_id": "DEV",
		"unsigned": {"device_display_name": "<phone>"},
		"signatures": {"@alice:example.org": {"ed25519:DEV": "sig"}},
		"keys": {"ed25519:DEV": "k2", "curve25519:DEV": "k1"},
		"algorithms": ["m.olm.v1.curve25519-aes-sha2", "m.megolm.v1.aes-sha2"]
	}`)

	got, err := SignableJSON(raw)

	require.NoError(t, err)
	assert.Equal(t,
		`{"algorithms":["m.olm.v1.curve25519-aes-sha2","m.megolm.v1.aes-sha2"],"device_id":"DEV",`+
			`"keys":{"curve25519:DEV":"k1","ed25519:DEV":"k2"},"user_id":"@alice:example.org"}`,
		string(got))
}

func TestSignableJSON_KeepsNumbersAndHTML(t *testing.T) {
	got, err := SignableJSON([]byte(`{"b": 12345678901234567890, "a": "<&>"}`))

	require.NoError(t, err)
	assert.Equal(t, `{"a":"<&>","b":12345678901234567890}`, string(got))
}

func TestSignableJSON_RejectsNonObjects(t *testing.T) {
	for _, input := range []string{`[1,2]`, `null`, `"str"`, `{broken`} {
		_, err := SignableJSON([]byte(input))
		assert.ErrorIs(t, err, ErrInvalidSignableJSON, input)
	}
}
