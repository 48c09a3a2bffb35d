// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"encoding/base64"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func megolmMessage(index uint32) string {
	b := AppendMegolmHeader(nil, index, []byte("opaque-ciphertext"))
	b = append(b, bytes.Repeat([]byte{0xAA}, megolmMessageTrailer)...)
	return base64.RawStdEncoding.EncodeToString(b)
}

func TestParseMessageIndex(t *testing.T) {
	tests := []struct {
		name  string
		index uint32
	}{
		{name: "zero", index: 0},
		{name: "single byte varint", index: 5},
		{name: "multi byte varint", index: 300},
		{name: "large", index: 1 << 31},
		{name: "max", index: math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessageIndex(megolmMessage(tt.index))
			require.NoError(t, err)
			assert.Equal(t, int(tt.index), got)
		})
	}
}

func TestParseMessageIndex_AcceptsPaddedBase64(t *testing.T) {
	b := AppendMegolmHeader(nil, 7, []byte("x"))
	got, err := ParseMessageIndex(base64.StdEncoding.EncodeToString(b))

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestParseMessageIndex_SkipsUnknownLeadingField(t *testing.T) {
	b := []byte{megolmMessageVersion}
	b = protowire.AppendTag(b, 9, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))
	b = protowire.AppendTag(b, megolmFieldMessageIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)

	got, err := ParseMessageIndex(base64.RawStdEncoding.EncodeToString(b))

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestParseMessageIndex_Errors(t *testing.T) {
	noIndex := []byte{megolmMessageVersion}
	noIndex = protowire.AppendTag(noIndex, megolmFieldCiphertext, protowire.BytesType)
	noIndex = protowire.AppendBytes(noIndex, []byte("c"))

	// 2^32 + 5 would read as 5 once truncated to 32 bits
	overflow := []byte{megolmMessageVersion}
	overflow = protowire.AppendTag(overflow, megolmFieldMessageIndex, protowire.VarintType)
	overflow = protowire.AppendVarint(overflow, 1<<32+5)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not base64", input: "!!!", wantErr: ErrInvalidCiphertext},
		{name: "empty", input: "", wantErr: ErrInvalidCiphertext},
		{name: "wrong version", input: base64.RawStdEncoding.EncodeToString([]byte{2, 8, 1}), wantErr: ErrUnsupportedVersion},
		{name: "truncated varint", input: base64.RawStdEncoding.EncodeToString([]byte{3, 8, 0x80}), wantErr: ErrInvalidCiphertext},
		{name: "no index field", input: base64.RawStdEncoding.EncodeToString(noIndex), wantErr: ErrMissingMessageIndex},
		{name: "index over uint32", input: base64.RawStdEncoding.EncodeToString(overflow), wantErr: ErrInvalidCiphertext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessageIndex(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
