package stream

import (
	"testing"

	"github.com/bromq-dev/mqttparse/pkg/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(d *VarIntDecoder, in []byte) (uint32, bool, error) {
	var (
		v    uint32
		done bool
		err  error
	)
	for _, b := range in {
		v, done, err = d.TakeByte(b)
		if err != nil || done {
			break
		}
	}
	return v, done, err
}

func TestVarIntDecoderMatchesPacketEncoding(t *testing.T) {
	var d VarIntDecoder
	buf := make([]byte, 4)
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, packet.MaxVarInt} {
		n := packet.EncodeVarInt(buf, v)
		d.Reset()

		got, done, err := feed(&d, buf[:n])
		require.NoError(t, err)
		require.True(t, done)
		assert.Equal(t, v, got)
		assert.Equal(t, n, d.Len())
	}
}

func TestVarIntDecoderMalformed(t *testing.T) {
	tests := []struct {
		in   []byte
		want error
	}{
		{[]byte{0x80, 0x00}, packet.ErrVarIntOverlong},
		{[]byte{0xFF, 0x80, 0x80, 0x00}, packet.ErrVarIntOverlong},
		{[]byte{0xFF, 0xFF, 0xFF, 0x80}, packet.ErrVarIntTooManyBytes},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x01}, packet.ErrVarIntTooManyBytes},
	}
	for _, tt := range tests {
		var d VarIntDecoder
		_, _, err := feed(&d, tt.in)
		require.ErrorIs(t, err, tt.want, "% X", tt.in)
		assert.ErrorIs(t, err, packet.ErrMalformedVarInt)

		_, _, err = d.TakeByte(0x00)
		assert.ErrorIs(t, err, tt.want, "error is sticky")
	}
}

func TestVarIntDecoderAlreadyDecoded(t *testing.T) {
	var d VarIntDecoder
	_, done, err := d.TakeByte(0x05)
	require.NoError(t, err)
	require.True(t, done)

	_, _, err = d.TakeByte(0x05)
	assert.ErrorIs(t, err, ErrAlreadyDecoded)

	d.Reset()
	v, done, err := d.TakeByte(0x05)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, uint32(5), v)
}

func TestVarIntDecoderIncomplete(t *testing.T) {
	var d VarIntDecoder
	_, done, err := feed(&d, []byte{0x80, 0x80})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 2, d.Len())
}
