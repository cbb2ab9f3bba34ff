package wire

import (
	"github.com/resolvd/resolvd/internal/helpers"
	"github.com/resolvd/resolvd/internal/wire/buffer"
)

// MaxRecordsPerSection caps the number of records this decoder will
// attempt per section, independent of what the header claims, so a
// corrupt header count cannot force unbounded allocation.
const MaxRecordsPerSection = 4096

// Packet is a complete DNS message (RFC 1035 §4).
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Resources   []Record
}

// DecodePacket decodes a Packet from msg, starting at offset 0.
//
// A record whose parse fails is silently skipped: the decode loop for its
// section still runs header.{answers,authoritative,resource}_count times,
// but a failing attempt simply contributes nothing, leaving the resulting
// slice shorter than the header's count. This is deliberate resilience
// against malformed records in the wild and must be preserved; only a
// header or question decode failure aborts the whole packet.
func DecodePacket(msg []byte) (Packet, error) {
	b := buffer.NewFixedFrom(msg)
	return decodePacket(b)
}

// DecodePacketResizable is DecodePacket for messages that may exceed the
// 512-byte Fixed buffer (TCP, EDNS0-signaled UDP).
func DecodePacketResizable(msg []byte) (Packet, error) {
	b := buffer.NewResizableFrom(msg)
	return decodePacket(b)
}

func decodePacket(b buffer.Buffer) (Packet, error) {
	if err := b.Seek(0); err != nil {
		return Packet{}, err
	}
	h, err := decodeHeader(b)
	if err != nil {
		return Packet{}, err
	}

	p := Packet{Header: h}

	p.Questions = make([]Question, 0, clampCount(h.Questions))
	for i := uint16(0); i < h.Questions; i++ {
		q, err := decodeQuestion(b)
		if err != nil {
			return Packet{}, err
		}
		p.Questions = append(p.Questions, q)
	}

	p.Answers = decodeRecordSection(b, h.Answers)
	p.Authorities = decodeRecordSection(b, h.AuthoritativeCount)
	p.Resources = decodeRecordSection(b, h.AdditionalCount)

	return p, nil
}

func decodeRecordSection(b buffer.Buffer, count uint16) []Record {
	out := make([]Record, 0, clampCount(count))
	for i := uint16(0); i < count; i++ {
		rr, err := decodeRecord(b)
		if err != nil {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func clampCount(n uint16) int {
	if int(n) > MaxRecordsPerSection {
		return MaxRecordsPerSection
	}
	return int(n)
}

// Encode serializes the packet to DNS wire format into a Fixed buffer,
// suitable for a classic (non-EDNS) UDP response. Section counts are
// recomputed from the slice lengths; Header's own count fields are
// ignored.
func (p Packet) Encode() ([]byte, error) {
	b := buffer.NewFixed()
	if err := p.encode(b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// EncodeResizable is Encode into a growable buffer, for responses that may
// exceed 512 bytes.
func (p Packet) EncodeResizable() ([]byte, error) {
	b := buffer.NewResizable(buffer.FixedSize)
	if err := p.encode(b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (p Packet) encode(b buffer.Buffer) error {
	qd := helpers.ClampIntToUint16(len(p.Questions))
	an := helpers.ClampIntToUint16(len(p.Answers))
	ns := helpers.ClampIntToUint16(len(p.Authorities))
	ar := helpers.ClampIntToUint16(len(p.Resources))

	if err := p.Header.encode(b, qd, an, ns, ar); err != nil {
		return err
	}
	for _, q := range p.Questions {
		if err := encodeQuestion(q, b); err != nil {
			return err
		}
	}
	for _, rr := range p.Answers {
		if err := encodeRecord(rr, b); err != nil {
			return err
		}
	}
	for _, rr := range p.Authorities {
		if err := encodeRecord(rr, b); err != nil {
			return err
		}
	}
	for _, rr := range p.Resources {
		if err := encodeRecord(rr, b); err != nil {
			return err
		}
	}
	return nil
}
