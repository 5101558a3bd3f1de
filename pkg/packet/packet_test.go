package packet

import (
	"bytes"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalDecodeRoundTrip(t *testing.T) {
	tests := []Packet{
		&Connect{
			Protocol:  ProtocolInfo{Name: ProtocolName, Level: ProtocolLevel},
			Flags:     ConnectFlags{CleanSession: true, WillFlag: true, WillQoS: QoS1, UserName: true, Password: true},
			KeepAlive: 30,
			Payload: ConnectPayload{
				ClientID:    "dev42",
				WillTopic:   "status/dev42",
				WillMessage: []byte("offline"),
				UserName:    "admin",
				Password:    []byte{0x00, 0xFF},
			},
		},
		&Connack{SessionPresent: true, ReturnCode: ServerUnavailable},
		&Publish{TopicName: "a/b", Payload: []byte("qos0")},
		&Publish{QoS: QoS1, Retain: true, TopicName: "a/b", PacketID: 1, Payload: []byte("qos1")},
		&Publish{Dup: true, QoS: QoS2, TopicName: "a/b", PacketID: 65535, Payload: bytes.Repeat([]byte{'x'}, 300)},
		&Puback{PacketID: 1},
		&Pubrec{PacketID: 2},
		&Pubrel{PacketID: 3},
		&Pubcomp{PacketID: 4},
		&Subscribe{PacketID: 5, Subscriptions: []Subscription{{TopicFilter: "a/#", QoS: QoS2}}},
		&Suback{PacketID: 5, ReturnCode: SubackFailure},
		&Unsubscribe{PacketID: 6, TopicFilters: []string{"a/#", "+/b"}},
		&Unsuback{PacketID: 6},
		&Pingreq{},
		&Pingresp{},
		&Disconnect{},
	}

	for _, want := range tests {
		t.Run(want.Type().String(), func(t *testing.T) {
			b, err := Marshal(want)
			require.NoError(t, err)
			assert.Len(t, b, want.EncodedSize())

			got, n, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, len(b), n)
			assert.Equal(t, want, got)
		})
	}
}

func TestMarshalRejectsInvalidString(t *testing.T) {
	_, err := Marshal(&Publish{TopicName: "a\x00b", Payload: []byte("x")})
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestEncodeRefusesWhatParseRejects(t *testing.T) {
	tests := []struct {
		name string
		pkt  Packet
	}{
		{"publish wildcard +", &Publish{TopicName: "a/+", Payload: []byte("x")}},
		{"publish wildcard #", &Publish{QoS: QoS1, TopicName: "a/#", PacketID: 1}},
		{"publish empty topic", &Publish{Payload: []byte("x")}},
		{"publish QoS 3", &Publish{QoS: 3, TopicName: "a", PacketID: 1}},
		{"publish DUP at QoS 0", &Publish{Dup: true, TopicName: "a"}},
		{"publish zero identifier", &Publish{QoS: QoS2, TopicName: "a"}},
		{"subscribe QoS 3", &Subscribe{PacketID: 1, Subscriptions: []Subscription{{TopicFilter: "a", QoS: 3}}}},
		{"subscribe empty filter", &Subscribe{PacketID: 1, Subscriptions: []Subscription{{TopicFilter: ""}}}},
		{"subscribe no subscriptions", &Subscribe{PacketID: 1}},
		{"subscribe zero identifier", &Subscribe{Subscriptions: []Subscription{{TopicFilter: "a"}}}},
		{"unsubscribe no filters", &Unsubscribe{PacketID: 1}},
		{"unsubscribe empty filter", &Unsubscribe{PacketID: 1, TopicFilters: []string{""}}},
		{"unsubscribe zero identifier", &Unsubscribe{TopicFilters: []string{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, tt.pkt.Encode(make([]byte, tt.pkt.EncodedSize()+8)))
			_, err := Marshal(tt.pkt)
			assert.ErrorIs(t, err, ErrShortBuffer)
		})
	}
}

func TestEncodeShortBuffer(t *testing.T) {
	p := &Subscribe{PacketID: 1, Subscriptions: []Subscription{{TopicFilter: "a"}}}
	assert.Zero(t, p.Encode(make([]byte, p.EncodedSize()-1)))
	assert.Zero(t, (&Puback{PacketID: 1}).Encode(make([]byte, 3)))
	assert.Zero(t, (&Pingreq{}).Encode(make([]byte, 1)))
}

// Packets written by the Paho client library decode cleanly.
func TestDecodePahoPackets(t *testing.T) {
	connect := packets.NewControlPacket(packets.Connect).(*packets.ConnectPacket)
	connect.ProtocolName = "MQTT"
	connect.ProtocolVersion = 4
	connect.CleanSession = true
	connect.Keepalive = 45
	connect.ClientIdentifier = "paho1"
	connect.UsernameFlag = true
	connect.Username = "user"
	connect.PasswordFlag = true
	connect.Password = []byte("pass")

	publish := packets.NewControlPacket(packets.Publish).(*packets.PublishPacket)
	publish.TopicName = "test/topic"
	publish.Qos = 1
	publish.MessageID = 7
	publish.Payload = []byte("test payload")

	subscribe := packets.NewControlPacket(packets.Subscribe).(*packets.SubscribePacket)
	subscribe.MessageID = 8
	subscribe.Topics = []string{"topic1", "topic2/#"}
	subscribe.Qoss = []byte{0, 2}

	unsubscribe := packets.NewControlPacket(packets.Unsubscribe).(*packets.UnsubscribePacket)
	unsubscribe.MessageID = 9
	unsubscribe.Topics = []string{"topic1"}

	pubrel := packets.NewControlPacket(packets.Pubrel).(*packets.PubrelPacket)
	pubrel.MessageID = 7

	tests := []struct {
		in   packets.ControlPacket
		want Packet
	}{
		{connect, &Connect{
			Protocol:  ProtocolInfo{Name: "MQTT", Level: 4},
			Flags:     ConnectFlags{CleanSession: true, UserName: true, Password: true},
			KeepAlive: 45,
			Payload:   ConnectPayload{ClientID: "paho1", UserName: "user", Password: []byte("pass")},
		}},
		{publish, &Publish{QoS: QoS1, TopicName: "test/topic", PacketID: 7, Payload: []byte("test payload")}},
		{subscribe, &Subscribe{PacketID: 8, Subscriptions: []Subscription{
			{TopicFilter: "topic1", QoS: QoS0},
			{TopicFilter: "topic2/#", QoS: QoS2},
		}}},
		{unsubscribe, &Unsubscribe{PacketID: 9, TopicFilters: []string{"topic1"}}},
		{pubrel, &Pubrel{PacketID: 7}},
		{packets.NewControlPacket(packets.Pingreq), &Pingreq{}},
		{packets.NewControlPacket(packets.Disconnect), &Disconnect{}},
	}

	for _, tt := range tests {
		t.Run(tt.want.Type().String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.in.Write(&buf))

			got, n, err := Decode(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, buf.Len(), n)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Packets produced here are accepted by the Paho reader.
func TestPahoReadsMarshalledPackets(t *testing.T) {
	b, err := Marshal(&Publish{QoS: QoS2, TopicName: "x/y", PacketID: 99, Payload: []byte("z")})
	require.NoError(t, err)

	cp, err := packets.ReadPacket(bytes.NewReader(b))
	require.NoError(t, err)
	pub, ok := cp.(*packets.PublishPacket)
	require.True(t, ok)
	assert.Equal(t, "x/y", pub.TopicName)
	assert.Equal(t, uint16(99), pub.MessageID)
	assert.Equal(t, byte(2), pub.Qos)
	assert.Equal(t, []byte("z"), pub.Payload)
}
