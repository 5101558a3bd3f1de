package hooks

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bromq-dev/mqttparse/pkg/inspect"
	"github.com/bromq-dev/mqttparse/pkg/packet"
)

// Record is the stored form of one decoded or malformed packet.
type Record struct {
	ConnID     string    `msgpack:"conn_id"`
	RemoteAddr string    `msgpack:"remote_addr"`
	ClientID   string    `msgpack:"client_id,omitempty"`
	Time       time.Time `msgpack:"time"`

	// Set for decoded packets.
	Type     string   `msgpack:"type,omitempty"`
	PacketID uint16   `msgpack:"packet_id,omitempty"`
	Topics   []string `msgpack:"topics,omitempty"`
	QoS      []uint8  `msgpack:"qos,omitempty"`
	Size     int      `msgpack:"size,omitempty"`

	// Set for Malformed Packets.
	Error     string `msgpack:"error,omitempty"`
	ErrorKind string `msgpack:"error_kind,omitempty"`
	Rule      string `msgpack:"rule,omitempty"`
}

// Malformed reports whether the record describes a Malformed Packet.
func (r *Record) Malformed() bool {
	return r.Error != ""
}

// NewRecord builds a record for pkt, or for err when pkt is nil.
func NewRecord(conn inspect.ConnInfo, pkt packet.Packet, err error) *Record {
	r := &Record{
		ConnID:     conn.ID,
		RemoteAddr: conn.RemoteAddr,
		ClientID:   conn.ClientID,
		Time:       time.Now().UTC(),
	}

	if err != nil {
		r.Error = err.Error()
		if kind := packet.KindOf(err); kind != nil {
			r.ErrorKind = kind.Error()
		}
		r.Rule = packet.RuleOf(err)
	}
	if pkt == nil {
		return r
	}

	r.Type = pkt.Type().String()
	r.Size = pkt.EncodedSize()
	if id, ok := pkt.(packet.Identified); ok {
		r.PacketID = id.Identifier()
	}

	switch p := pkt.(type) {
	case *packet.Connect:
		if p.Flags.WillFlag {
			r.Topics = []string{p.Payload.WillTopic}
			r.QoS = []uint8{uint8(p.Flags.WillQoS)}
		}
	case *packet.Publish:
		r.Topics = []string{p.TopicName}
		r.QoS = []uint8{uint8(p.QoS)}
	case *packet.Subscribe:
		for _, sub := range p.Subscriptions {
			r.Topics = append(r.Topics, sub.TopicFilter)
			r.QoS = append(r.QoS, uint8(sub.QoS))
		}
	case *packet.Unsubscribe:
		r.Topics = append(r.Topics, p.TopicFilters...)
	}
	return r
}

// Encode serializes the record with msgpack.
func (r *Record) Encode() ([]byte, error) {
	return msgpack.Marshal(r)
}

// DecodeRecord parses a record produced by Record.Encode.
func DecodeRecord(b []byte) (*Record, error) {
	var r Record
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
