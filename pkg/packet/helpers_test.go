package packet

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// lp returns s as a two-byte length-prefixed field.
func lp(s string) []byte {
	b := make([]byte, 2, 2+len(s))
	binary.BigEndian.PutUint16(b, uint16(len(s)))
	return append(b, s...)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func header(t Type, flags byte, payload []byte) FixedHeader {
	return FixedHeader{Type: t, Flags: flags, RemainingLength: uint32(len(payload))}
}

// requireRule asserts err matches kind and names rule.
func requireRule(t *testing.T, err error, kind error, rule string) {
	t.Helper()
	require.ErrorIs(t, err, kind)
	var perr *Error
	require.True(t, errors.As(err, &perr), "expected *Error, got %T", err)
	require.Equal(t, rule, perr.Rule)
}
