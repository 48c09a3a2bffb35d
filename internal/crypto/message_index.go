// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	megolmMessageVersion = 3

	megolmFieldMessageIndex protowire.Number = 1
	megolmFieldCiphertext   protowire.Number = 2

	// mac (8) + ed25519 signature (64)
	megolmMessageTrailer = 8 + 64
)

// ParseMessageIndex extracts the ratchet index from a base64 encoded Megolm
// message. The message is a version byte followed by protobuf fields; only
// the header is read, nothing is decrypted.
func ParseMessageIndex(ciphertext string) (int, error) {
	raw, err := decodeUnpaddedBase64(ciphertext)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}
	if len(raw) == 0 {
		return 0, ErrInvalidCiphertext
	}
	if raw[0] != megolmMessageVersion {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, raw[0])
	}

	body := raw[1:]
	if len(body) > megolmMessageTrailer {
		body = body[:len(body)-megolmMessageTrailer]
	}

	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return 0, fmt.Errorf("%w: %w", ErrInvalidCiphertext, protowire.ParseError(n))
		}
		body = body[n:]

		if num == megolmFieldMessageIndex && typ == protowire.VarintType {
			index, m := protowire.ConsumeVarint(body)
			if m < 0 {
				return 0, fmt.Errorf("%w: %w", ErrInvalidCiphertext, protowire.ParseError(m))
			}
			if index > math.MaxUint32 {
				return 0, fmt.Errorf("%w: message index %d overflows uint32", ErrInvalidCiphertext, index)
			}
			return int(index), nil
		}

		m := protowire.ConsumeFieldValue(num, typ, body)
		if m < 0 {
			return 0, fmt.Errorf("%w: %w", ErrInvalidCiphertext, protowire.ParseError(m))
		}
		body = body[m:]
	}

	return 0, ErrMissingMessageIndex
}

// AppendMegolmHeader appends a version byte and the index and ciphertext
// fields of a Megolm message to b. The mac and signature are not appended.
func AppendMegolmHeader(b []byte, index uint32, ciphertext []byte) []byte {
	b = append(b, megolmMessageVersion)
	b = protowire.AppendTag(b, megolmFieldMessageIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(index))
	b = protowire.AppendTag(b, megolmFieldCiphertext, protowire.BytesType)
	b = protowire.AppendBytes(b, ciphertext)
	return b
}

func decodeUnpaddedBase64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func encodeUnpaddedBase64(b []byte) string {
	return base64.RawStdEncoding.EncodeToString(b)
}
