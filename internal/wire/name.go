package wire

import (
	"fmt"
	"strings"

	"github.com/resolvd/resolvd/internal/wire/buffer"
)

// maxJumps bounds the number of compression-pointer indirections a single
// name decode may follow, defeating pointer cycles (spec.md §4.2, §8).
const maxJumps = 5

// maxLabelLen and maxNameLen are the RFC 1035 §3.1 limits.
const (
	maxLabelLen = 63
	maxNameLen  = 255
)

// encodeName writes a QualifiedName in uncompressed wire format: each label
// prefixed by its length byte, terminated by a zero-length label. This
// implementation never emits compression pointers (spec.md §4.2).
func encodeName(b buffer.Buffer, name string) error {
	name = strings.TrimSuffix(name, ".")

	var out []byte
	if name != "" {
		labels := strings.Split(name, ".")
		for _, label := range labels {
			if len(label) == 0 {
				return fmt.Errorf("%w: empty label in %q", ErrLabelTooLong, name)
			}
			if len(label) > maxLabelLen {
				return fmt.Errorf("%w: label %q is %d bytes", ErrLabelTooLong, label, len(label))
			}
			out = append(out, byte(len(label)))
			out = append(out, label...)
		}
	}
	out = append(out, 0)

	if len(out) > maxNameLen {
		return fmt.Errorf("%w: %q encodes to %d bytes", ErrNameTooLong, name, len(out))
	}
	return b.WriteBytes(out)
}

// decodeName reads a possibly-compressed QualifiedName from b at its
// current position, per RFC 1035 §4.1.4.
//
// After a name with at least one jump, the cursor stands at the byte past
// the first pointer; a name with no jump leaves the cursor at the byte
// past the terminating zero label.
func decodeName(b buffer.Buffer) (string, error) {
	var labels []string
	jumps := 0
	jumped := false
	// cursorAfterFirstPointer is where b's cursor should land once decoding
	// finishes, if at least one jump was taken.
	cursorAfterFirstPointer := -1

	for {
		lenByte, err := b.Get(b.Pos())
		if err != nil {
			return "", err
		}

		if lenByte&0xC0 == 0xC0 {
			hi, err := b.ReadUint8()
			if err != nil {
				return "", err
			}
			lo, err := b.ReadUint8()
			if err != nil {
				return "", err
			}
			if !jumped {
				cursorAfterFirstPointer = b.Pos()
				jumped = true
			}

			jumps++
			if jumps > maxJumps {
				return "", ErrJumpLimitExceeded
			}

			offset := (int(hi&0x3F) << 8) | int(lo)
			if err := b.Seek(offset); err != nil {
				return "", err
			}
			continue
		}

		if lenByte == 0 {
			if _, err := b.ReadUint8(); err != nil {
				return "", err
			}
			break
		}

		if _, err := b.ReadUint8(); err != nil {
			return "", err
		}
		raw, err := b.GetRange(b.Pos(), int(lenByte))
		if err != nil {
			return "", err
		}
		if err := b.Step(int(lenByte)); err != nil {
			return "", err
		}
		for _, c := range raw {
			if c > 0x7F {
				return "", fmt.Errorf("%w: non-ASCII byte in label", ErrInvalidPacket)
			}
		}
		labels = append(labels, strings.ToLower(string(raw)))
	}

	if jumped {
		if err := b.Seek(cursorAfterFirstPointer); err != nil {
			return "", err
		}
	}

	return strings.Join(labels, "."), nil
}
