package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_Records(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(`{"Records": [{"eventName": "CreateImage", "eventID": "e1"}]}`), &env))
		require.NotNil(t, env.Records)
		require.Len(t, *env.Records, 1)
		assert.Equal(t, "CreateImage", (*env.Records)[0].EventName)
	})

	t.Run("empty is not absent", func(t *testing.T) {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(`{"Records": []}`), &env))
		require.NotNil(t, env.Records)
		assert.Empty(t, *env.Records)
	})

	t.Run("absent", func(t *testing.T) {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(`{"Events": []}`), &env))
		assert.Nil(t, env.Records)
	})
}

func TestRecord_KeepsRawSections(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"eventName": "StopInstances",
		"requestParameters": {"instancesSet": {"items": [{"instanceId": "i-1"}]}},
		"responseElements": null
	}`), &rec))

	assert.JSONEq(t, `{"instancesSet": {"items": [{"instanceId": "i-1"}]}}`, string(rec.RequestParameters))
	assert.Nil(t, rec.UserIdentity)
}

func TestRecord_Failed(t *testing.T) {
	assert.False(t, Record{EventName: "CreateImage"}.Failed())
	assert.True(t, Record{EventName: "CreateImage", ErrorCode: "Client.UnauthorizedOperation"}.Failed())
}

func TestObjectLocator_String(t *testing.T) {
	loc := ObjectLocator{Bucket: "trail-logs", Key: "AWSLogs/111122223333/log.json.gz"}
	assert.Equal(t, "s3://trail-logs/AWSLogs/111122223333/log.json.gz", loc.String())
}

func TestParentageColumns(t *testing.T) {
	assert.Equal(t, []string{"AWSAccountId", "UserEmail", "CreationDate", "AMIId", "ParentId"}, ParentageColumns)
}
