package wire

import "github.com/resolvd/resolvd/internal/wire/buffer"

// Question is one entry of a DNS message's question section (RFC 1035
// §4.1.2).
type Question struct {
	Name  string
	Type  RecordType
	Class RecordClass
}

func decodeQuestion(b buffer.Buffer) (Question, error) {
	name, err := decodeName(b)
	if err != nil {
		return Question{}, err
	}
	qtype, err := b.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	qclass, err := b.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	return Question{Name: name, Type: RecordType(qtype), Class: RecordClass(qclass)}, nil
}

func encodeQuestion(q Question, b buffer.Buffer) error {
	if err := encodeName(b, q.Name); err != nil {
		return err
	}
	if err := b.WriteUint16(uint16(q.Type)); err != nil {
		return err
	}
	return b.WriteUint16(uint16(q.Class))
}
