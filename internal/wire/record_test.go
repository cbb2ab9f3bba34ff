package wire

import (
	"testing"

	"github.com/resolvd/resolvd/internal/wire/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeDecodeOne(t *testing.T, r Record) Record {
	t.Helper()
	b := buffer.NewFixed()
	require.NoError(t, encodeRecord(r, b))
	require.NoError(t, b.Seek(0))
	got, err := decodeRecord(b)
	require.NoError(t, err)
	return got
}

func TestRecordARoundTrip(t *testing.T) {
	r := Record{Domain: "example.com", Type: TypeA, Class: ClassIN, TTL: 300, Data: []byte{93, 184, 216, 34}}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}

func TestRecordAAAARoundTrip(t *testing.T) {
	addr := make([]byte, 16)
	addr[15] = 1
	r := Record{Domain: "example.com", Type: TypeAAAA, Class: ClassIN, TTL: 300, Data: addr}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}

func TestRecordAWrongLengthFails(t *testing.T) {
	b := buffer.NewFixed()
	err := encodeRecord(Record{Domain: "example.com", Type: TypeA, Class: ClassIN, TTL: 60, Data: []byte{1, 2, 3}}, b)
	assert.ErrorIs(t, err, ErrInvalidPacket)
}

func TestRecordCNAMERoundTrip(t *testing.T) {
	r := Record{Domain: "www.example.com", Type: TypeCNAME, Class: ClassIN, TTL: 60, Data: "example.com"}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}

func TestRecordMXRoundTrip(t *testing.T) {
	r := Record{Domain: "example.com", Type: TypeMX, Class: ClassIN, TTL: 3600, Data: MXData{Preference: 10, Exchange: "mail.example.com"}}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}

func TestRecordSOARoundTrip(t *testing.T) {
	r := Record{
		Domain: "example.com", Type: TypeSOA, Class: ClassIN, TTL: 3600,
		Data: SOAData{
			MName: "ns1.example.com", RName: "hostmaster.example.com",
			Serial: 2024010100, Refresh: 7200, Retry: 3600, Expire: 1209600, Minimum: 300,
		},
	}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}

func TestRecordTXTRoundTripsAsRawBytes(t *testing.T) {
	r := Record{Domain: "example.com", Type: TypeTXT, Class: ClassIN, TTL: 60, Data: []byte{5, 'h', 'e', 'l', 'l', 'o'}}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}

func TestRecordUnknownTypeKeptAsRawBytes(t *testing.T) {
	r := Record{Domain: "example.com", Type: RecordType(999), Class: ClassIN, TTL: 60, Data: []byte{0xAA, 0xBB}}
	got := encodeDecodeOne(t, r)
	assert.Equal(t, r, got)
}
