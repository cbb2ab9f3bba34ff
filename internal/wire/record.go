package wire

import (
	"fmt"

	"github.com/resolvd/resolvd/internal/helpers"
	"github.com/resolvd/resolvd/internal/wire/buffer"
)

// Record is a DNS resource record. Data is type-specific:
//
//   - A, AAAA, TXT, OPT, and any unrecognized type: []byte (raw)
//   - CNAME, NS, PTR: string
//   - MX: MXData
//   - SOA: SOAData
//
// A tagged union over Type rather than a per-type struct hierarchy, so
// callers switch on Type and type-assert Data instead of each record type
// being its own struct behind a Record interface (design note: avoid
// inheritance here, an
// exhaustive switch on the wire type is the natural shape).
type Record struct {
	Domain string
	Type   RecordType
	Class  RecordClass
	TTL    uint32
	Data   any
}

// MXData is the RDATA of an MX record (RFC 1035 §3.3.9).
type MXData struct {
	Preference uint16
	Exchange   string
}

// SOAData is the RDATA of an SOA record (RFC 1035 §3.3.13).
type SOAData struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

// decodeRecord reads one resource record from b at its current position.
func decodeRecord(b buffer.Buffer) (Record, error) {
	domain, err := decodeName(b)
	if err != nil {
		return Record{}, err
	}
	rrType, err := b.ReadUint16()
	if err != nil {
		return Record{}, err
	}
	rrClass, err := b.ReadUint16()
	if err != nil {
		return Record{}, err
	}
	ttl, err := b.ReadUint32()
	if err != nil {
		return Record{}, err
	}
	rdlen, err := b.ReadUint16()
	if err != nil {
		return Record{}, err
	}
	start := b.Pos()

	var data any
	switch RecordType(rrType) {
	case TypeA, TypeAAAA:
		want := 4
		if RecordType(rrType) == TypeAAAA {
			want = 16
		}
		if int(rdlen) != want {
			return Record{}, fmt.Errorf("%w: %s record rdata must be %d bytes, got %d", ErrInvalidPacket, RecordType(rrType), want, rdlen)
		}
		raw, err := b.GetRange(start, int(rdlen))
		if err != nil {
			return Record{}, err
		}
		if err := b.Step(int(rdlen)); err != nil {
			return Record{}, err
		}
		data = raw

	case TypeCNAME, TypeNS, TypePTR:
		target, err := decodeName(b)
		if err != nil {
			return Record{}, err
		}
		if b.Pos()-start != int(rdlen) {
			return Record{}, fmt.Errorf("%w: name record rdata length mismatch", ErrInvalidPacket)
		}
		data = target

	case TypeMX:
		pref, err := b.ReadUint16()
		if err != nil {
			return Record{}, err
		}
		exchange, err := decodeName(b)
		if err != nil {
			return Record{}, err
		}
		if b.Pos()-start != int(rdlen) {
			return Record{}, fmt.Errorf("%w: MX record rdata length mismatch", ErrInvalidPacket)
		}
		data = MXData{Preference: pref, Exchange: exchange}

	case TypeSOA:
		mname, err := decodeName(b)
		if err != nil {
			return Record{}, err
		}
		rname, err := decodeName(b)
		if err != nil {
			return Record{}, err
		}
		serial, err := b.ReadUint32()
		if err != nil {
			return Record{}, err
		}
		refresh, err := b.ReadUint32()
		if err != nil {
			return Record{}, err
		}
		retry, err := b.ReadUint32()
		if err != nil {
			return Record{}, err
		}
		expire, err := b.ReadUint32()
		if err != nil {
			return Record{}, err
		}
		minimum, err := b.ReadUint32()
		if err != nil {
			return Record{}, err
		}
		if b.Pos()-start != int(rdlen) {
			return Record{}, fmt.Errorf("%w: SOA record rdata length mismatch", ErrInvalidPacket)
		}
		data = SOAData{MName: mname, RName: rname, Serial: serial, Refresh: refresh, Retry: retry, Expire: expire, Minimum: minimum}

	default:
		// TXT, OPT, and anything unrecognized: kept as raw bytes. This is
		// load-bearing for OPT presence detection and for TXT, which this
		// resolver never interprets, only forwards.
		raw, err := b.GetRange(start, int(rdlen))
		if err != nil {
			return Record{}, err
		}
		if err := b.Step(int(rdlen)); err != nil {
			return Record{}, err
		}
		data = raw
	}

	return Record{Domain: domain, Type: RecordType(rrType), Class: RecordClass(rrClass), TTL: ttl, Data: data}, nil
}

// encodeRecord writes one resource record to b at its current position. The
// data_length field is reserved as a placeholder, the payload is written,
// and the placeholder is back-patched once the payload length is known.
func encodeRecord(r Record, b buffer.Buffer) error {
	if err := encodeName(b, r.Domain); err != nil {
		return err
	}
	if err := b.WriteUint16(uint16(r.Type)); err != nil {
		return err
	}
	if err := b.WriteUint16(uint16(r.Class)); err != nil {
		return err
	}
	if err := b.WriteUint32(r.TTL); err != nil {
		return err
	}

	lenPos := b.Pos()
	if err := b.WriteUint16(0); err != nil {
		return err
	}
	start := b.Pos()

	if err := encodeRData(r, b); err != nil {
		return err
	}

	if err := b.SetUint16(lenPos, helpers.ClampIntToUint16(b.Pos()-start)); err != nil {
		return err
	}
	return nil
}

func encodeRData(r Record, b buffer.Buffer) error {
	switch r.Type {
	case TypeA:
		raw, ok := r.Data.([]byte)
		if !ok || len(raw) != 4 {
			return fmt.Errorf("%w: A record data must be 4 bytes", ErrInvalidPacket)
		}
		return b.WriteBytes(raw)

	case TypeAAAA:
		raw, ok := r.Data.([]byte)
		if !ok || len(raw) != 16 {
			return fmt.Errorf("%w: AAAA record data must be 16 bytes", ErrInvalidPacket)
		}
		return b.WriteBytes(raw)

	case TypeCNAME, TypeNS, TypePTR:
		target, ok := r.Data.(string)
		if !ok || target == "" {
			return fmt.Errorf("%w: name record data must be a non-empty string", ErrInvalidPacket)
		}
		return encodeName(b, target)

	case TypeMX:
		mx, ok := r.Data.(MXData)
		if !ok {
			return fmt.Errorf("%w: MX record data must be MXData", ErrInvalidPacket)
		}
		if err := b.WriteUint16(mx.Preference); err != nil {
			return err
		}
		return encodeName(b, mx.Exchange)

	case TypeSOA:
		soa, ok := r.Data.(SOAData)
		if !ok {
			return fmt.Errorf("%w: SOA record data must be SOAData", ErrInvalidPacket)
		}
		if err := encodeName(b, soa.MName); err != nil {
			return err
		}
		if err := encodeName(b, soa.RName); err != nil {
			return err
		}
		for _, v := range []uint32{soa.Serial, soa.Refresh, soa.Retry, soa.Expire, soa.Minimum} {
			if err := b.WriteUint32(v); err != nil {
				return err
			}
		}
		return nil

	default:
		raw, _ := r.Data.([]byte)
		if len(raw) == 0 {
			return nil
		}
		return b.WriteBytes(raw)
	}
}
