package wire

import (
	"testing"

	"github.com/resolvd/resolvd/internal/wire/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderDecodeEncodeRoundTrip(t *testing.T) {
	raw := []byte{0xD5, 0xAD, 0x01, 0x20, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	b := buffer.NewFixedFrom(raw)

	h, err := decodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xD5AD), h.ID)
	assert.True(t, h.RecursionDesired)
	assert.False(t, h.Response)
	assert.Equal(t, uint16(1), h.Questions)

	out := buffer.NewFixed()
	require.NoError(t, h.encode(out, h.Questions, h.Answers, h.AuthoritativeCount, h.AdditionalCount))
	assert.Equal(t, raw, out.Bytes())
}
