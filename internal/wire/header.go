package wire

import "github.com/resolvd/resolvd/internal/wire/buffer"

// HeaderSize is the fixed size of a DNS header in bytes (RFC 1035 §4.1.1).
const HeaderSize = 12

// Header is a DNS message header. QDCount/ANCount/NSCount/ARCount are not
// authoritative in a decoded in-memory Packet — Packet.Encode recomputes
// them from the length of its question/record slices, per spec.
type Header struct {
	ID uint16

	RecursionDesired    bool
	TruncatedMessage    bool
	AuthoritativeAnswer bool
	Opcode              Opcode
	Response            bool

	ResultCode       ResultCode
	CheckingDisabled bool
	AuthedData       bool
	Z                bool
	RecursionAvail   bool

	Questions          uint16
	Answers            uint16
	AuthoritativeCount uint16
	AdditionalCount    uint16
}

// decodeHeader reads a 12-byte header from b at its current position, advancing
// the cursor past it.
func decodeHeader(b buffer.Buffer) (Header, error) {
	id, err := b.ReadUint16()
	if err != nil {
		return Header{}, err
	}
	f1, err := b.ReadUint8()
	if err != nil {
		return Header{}, err
	}
	f2, err := b.ReadUint8()
	if err != nil {
		return Header{}, err
	}
	qd, err := b.ReadUint16()
	if err != nil {
		return Header{}, err
	}
	an, err := b.ReadUint16()
	if err != nil {
		return Header{}, err
	}
	ns, err := b.ReadUint16()
	if err != nil {
		return Header{}, err
	}
	ar, err := b.ReadUint16()
	if err != nil {
		return Header{}, err
	}

	return Header{
		ID:                  id,
		RecursionDesired:    f1&flag1RD != 0,
		TruncatedMessage:    f1&flag1TC != 0,
		AuthoritativeAnswer: f1&flag1AA != 0,
		Opcode:              Opcode((f1 & flag1Opcode) >> 3),
		Response:            f1&flag1QR != 0,
		ResultCode:          resultCodeFromWire(f2),
		CheckingDisabled:    f2&flag2CD != 0,
		AuthedData:          f2&flag2AD != 0,
		Z:                   f2&flag2Z != 0,
		RecursionAvail:      f2&flag2RA != 0,
		Questions:          qd,
		Answers:            an,
		AuthoritativeCount: ns,
		AdditionalCount:    ar,
	}, nil
}

// encode writes the header to b at its current position, advancing the
// cursor past it. qd/an/ns/ar are the caller-supplied (authoritative)
// section counts, since Header itself does not own them once a Packet is
// being re-encoded.
func (h Header) encode(b buffer.Buffer, qd, an, ns, ar uint16) error {
	if err := b.WriteUint16(h.ID); err != nil {
		return err
	}

	var f1 byte
	if h.RecursionDesired {
		f1 |= flag1RD
	}
	if h.TruncatedMessage {
		f1 |= flag1TC
	}
	if h.AuthoritativeAnswer {
		f1 |= flag1AA
	}
	f1 |= (byte(h.Opcode) << 3) & flag1Opcode
	if h.Response {
		f1 |= flag1QR
	}
	if err := b.WriteUint8(f1); err != nil {
		return err
	}

	var f2 byte
	f2 |= byte(h.ResultCode) & flag2RCode
	if h.CheckingDisabled {
		f2 |= flag2CD
	}
	if h.AuthedData {
		f2 |= flag2AD
	}
	if h.Z {
		f2 |= flag2Z
	}
	if h.RecursionAvail {
		f2 |= flag2RA
	}
	if err := b.WriteUint8(f2); err != nil {
		return err
	}

	if err := b.WriteUint16(qd); err != nil {
		return err
	}
	if err := b.WriteUint16(an); err != nil {
		return err
	}
	if err := b.WriteUint16(ns); err != nil {
		return err
	}
	return b.WriteUint16(ar)
}
