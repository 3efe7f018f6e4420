package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript_Flatten(t *testing.T) {
	tr := Transcript{
		{Role: RoleUser, Text: " hi there "},
		{Role: RoleAssistant, Text: "   "},
		{Role: RoleAssistant, Text: "Hello!"},
	}
	assert.Equal(t, "USER: hi there\nASSISTANT: Hello!", tr.Flatten())
	assert.Equal(t, "", Transcript{}.Flatten())
}

func TestEnvelope_StringData(t *testing.T) {
	var env Envelope
	assert.NoError(t, json.Unmarshal([]byte(`{"type":"user_id","data":"u-1"}`), &env))
	assert.Equal(t, MessageTypeUserID, env.Type)
	assert.Equal(t, "u-1", env.StringData())

	assert.NoError(t, json.Unmarshal([]byte(`{"type":"user_id","data":42}`), &env))
	assert.Equal(t, "42", env.StringData())

	assert.Equal(t, "", Envelope{Type: MessageTypeEnd}.StringData())
}

func TestUserRecord_Defaults(t *testing.T) {
	var u *UserRecord
	assert.Equal(t, "there", u.DisplayName())
	assert.False(t, u.HasSummary())

	u = &UserRecord{Name: "Ana", SummaryData: json.RawMessage(`{"summary":"x"}`)}
	assert.Equal(t, "Ana", u.DisplayName())
	assert.True(t, u.HasSummary())

	assert.False(t, (&UserRecord{SummaryData: json.RawMessage("null")}).HasSummary())
}
