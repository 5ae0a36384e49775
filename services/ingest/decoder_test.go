package ingest

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/ami-parentage/services"
)

const sampleEnvelope = `{
  "Records": [
    {
      "eventVersion": "1.08",
      "eventSource": "ec2.amazonaws.com",
      "eventName": "CreateImage",
      "eventTime": "2024-01-01T00:00:00Z",
      "awsRegion": "us-east-1",
      "userIdentity": {"type": "AssumedRole", "accountId": "111122223333", "principalId": "AIDA:bob@example.com"},
      "requestParameters": {"instanceId": "i-xyz", "name": "golden"},
      "responseElements": {"imageId": "ami-abc"}
    },
    {
      "eventName": "StopInstances",
      "eventTime": "2024-01-01T00:01:00Z",
      "requestParameters": {"instancesSet": {"items": [{"instanceId": "i-1"}]}},
      "responseElements": null
    },
    {
      "eventName": "PutObject",
      "responseElements": true
    }
  ]
}`

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	records, err := Decode(gzipBytes(t, sampleEnvelope))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "CreateImage", records[0].EventName)
	assert.Equal(t, "2024-01-01T00:00:00Z", records[0].EventTime)
	require.NotNil(t, records[0].UserIdentity)
	assert.Equal(t, "111122223333", records[0].UserIdentity.AccountID)
	assert.JSONEq(t, `{"imageId": "ami-abc"}`, string(records[0].ResponseElements))

	assert.Equal(t, "StopInstances", records[1].EventName)
	assert.Nil(t, records[1].UserIdentity)
	assert.Equal(t, "PutObject", records[2].EventName)
}

func TestDecode_EmptyRecords(t *testing.T) {
	records, err := Decode(gzipBytes(t, `{"Records": []}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecode_Malformed(t *testing.T) {
	full := gzipBytes(t, sampleEnvelope)

	tests := []struct {
		name string
		raw  []byte
	}{
		{"not gzip", []byte(sampleEnvelope)},
		{"empty payload", nil},
		{"gzip of invalid json", gzipBytes(t, `{"Records": [`)},
		{"gzip without Records", gzipBytes(t, `{"records": []}`)},
		{"gzip with null Records", gzipBytes(t, `{"Records": null}`)},
		{"Records is not an array", gzipBytes(t, `{"Records": {"eventName": "CreateImage"}}`)},
		{"truncated gzip stream", full[:len(full)-6]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode(tt.raw)
			require.Error(t, err)
			assert.True(t, services.IsMalformedPayloadError(err), "got %v", err)
			assert.Nil(t, records)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	records, err := DecodeJSON(strings.NewReader(sampleEnvelope))
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestDecodeAuto(t *testing.T) {
	plain, err := DecodeAuto([]byte(sampleEnvelope))
	require.NoError(t, err)

	compressed, err := DecodeAuto(gzipBytes(t, sampleEnvelope))
	require.NoError(t, err)

	assert.Equal(t, plain, compressed)

	_, err = DecodeAuto([]byte("not json at all"))
	assert.True(t, services.IsMalformedPayloadError(err))
}
