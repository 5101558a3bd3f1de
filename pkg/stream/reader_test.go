package stream

import (
	"bytes"
	"io"
	"runtime"
	"testing"
	"testing/iotest"

	"github.com/bromq-dev/mqttparse/pkg/packet"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, pkts ...packet.Packet) []byte {
	t.Helper()
	var out []byte
	for _, p := range pkts {
		b, err := packet.Marshal(p)
		require.NoError(t, err)
		out = append(out, b...)
	}
	return out
}

func TestReaderReadsSequence(t *testing.T) {
	want := []packet.Packet{
		&packet.Connect{
			Protocol:  packet.ProtocolInfo{Name: packet.ProtocolName, Level: packet.ProtocolLevel},
			Flags:     packet.ConnectFlags{CleanSession: true},
			KeepAlive: 10,
			Payload:   packet.ConnectPayload{ClientID: "c1"},
		},
		&packet.Publish{QoS: packet.QoS1, TopicName: "a/b", PacketID: 1, Payload: bytes.Repeat([]byte("p"), 5000)},
		&packet.Pingreq{},
		&packet.Disconnect{},
	}
	raw := marshal(t, want...)

	for name, src := range map[string]io.Reader{
		"whole":    bytes.NewReader(raw),
		"one byte": iotest.OneByteReader(bytes.NewReader(raw)),
		"half":     iotest.HalfReader(bytes.NewReader(raw)),
	} {
		t.Run(name, func(t *testing.T) {
			r := NewReader(src)
			for _, w := range want {
				got, err := r.ReadPacket()
				require.NoError(t, err)
				assert.Equal(t, w, got)
			}
			_, err := r.ReadPacket()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestReaderFrame(t *testing.T) {
	raw := marshal(t, &packet.Puback{PacketID: 9})
	f, err := NewReader(bytes.NewReader(raw)).ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, packet.FixedHeader{Type: packet.TypePuback, RemainingLength: 2}, f.Header)
	assert.Equal(t, []byte{0x00, 0x09}, f.Payload)
	assert.Equal(t, 4, f.Size)
}

func TestReaderPayloadIsCopied(t *testing.T) {
	raw := marshal(t,
		&packet.Publish{TopicName: "t", Payload: []byte("first")},
		&packet.Publish{TopicName: "t", Payload: []byte("second")},
	)
	r := NewReader(bytes.NewReader(raw))

	p1, err := r.ReadPacket()
	require.NoError(t, err)
	p2, err := r.ReadPacket()
	require.NoError(t, err)

	assert.Equal(t, []byte("first"), p1.(*packet.Publish).Payload)
	assert.Equal(t, []byte("second"), p2.(*packet.Publish).Payload)
}

func TestReaderTruncated(t *testing.T) {
	raw := marshal(t, &packet.Publish{TopicName: "a/b", Payload: []byte("hello")})

	for _, n := range []int{1, 2, len(raw) - 1} {
		r := NewReader(bytes.NewReader(raw[:n]))
		_, err := r.ReadFrame()
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut at %d", n)
	}

	_, err := NewReader(bytes.NewReader(nil)).ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderDeclaredLengthDoesNotAllocate(t *testing.T) {
	// Remaining Length 268435455 with no payload behind it.
	header := []byte{0x30, 0xFF, 0xFF, 0xFF, 0x7F}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	_, err := NewReader(bytes.NewReader(header)).ReadFrame()

	runtime.ReadMemStats(&after)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestReaderPayloadLargerThanBuffer(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 1000)
	raw := marshal(t, &packet.Publish{TopicName: "big", Payload: payload})

	r := NewReader(iotest.HalfReader(bytes.NewReader(raw)), WithBufferSize(minBufferSize))
	pkt, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, payload, pkt.(*packet.Publish).Payload)

	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderMalformedRemainingLength(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x30, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, packet.ErrVarIntTooManyBytes)

	r = NewReader(bytes.NewReader([]byte{0x30, 0x80, 0x00}))
	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, packet.ErrMalformedVarInt)
}

func TestReaderMaxPacketSize(t *testing.T) {
	raw := marshal(t, &packet.Publish{TopicName: "a", Payload: make([]byte, 100)})

	_, err := NewReader(bytes.NewReader(raw), WithMaxPacketSize(64)).ReadFrame()
	require.ErrorIs(t, err, ErrPacketTooLarge)
	assert.ErrorIs(t, err, packet.ErrPacketTooLarge)

	_, err = NewReader(bytes.NewReader(raw), WithMaxPacketSize(uint32(len(raw)))).ReadFrame()
	assert.NoError(t, err)
}

func TestReaderMalformedPacket(t *testing.T) {
	// PINGREQ with a reserved flag set
	r := NewReader(bytes.NewReader([]byte{0xC1, 0x00, 0xC0, 0x00}), WithBufferSize(16))
	_, err := r.ReadPacket()
	var perr *packet.Error
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, packet.ErrInvalidFlags)

	// The frame was consumed; the stream stays aligned.
	p, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, &packet.Pingreq{}, p)
}

func TestReaderPahoStream(t *testing.T) {
	var buf bytes.Buffer

	connect := packets.NewControlPacket(packets.Connect).(*packets.ConnectPacket)
	connect.ProtocolName = "MQTT"
	connect.ProtocolVersion = 4
	connect.CleanSession = true
	connect.ClientIdentifier = "paho"
	require.NoError(t, connect.Write(&buf))

	subscribe := packets.NewControlPacket(packets.Subscribe).(*packets.SubscribePacket)
	subscribe.MessageID = 3
	subscribe.Topics = []string{"x/#"}
	subscribe.Qoss = []byte{1}
	require.NoError(t, subscribe.Write(&buf))

	require.NoError(t, packets.NewControlPacket(packets.Pingreq).Write(&buf))

	r := NewReader(iotest.OneByteReader(&buf))

	p, err := r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, "paho", p.(*packet.Connect).Payload.ClientID)

	p, err = r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, &packet.Subscribe{PacketID: 3, Subscriptions: []packet.Subscription{{TopicFilter: "x/#", QoS: packet.QoS1}}}, p)

	p, err = r.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, &packet.Pingreq{}, p)

	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}
