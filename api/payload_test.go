package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	assert.Nil(t, ParsePayload(nil))
	assert.Nil(t, ParsePayload([]byte("   ")))
	assert.Nil(t, ParsePayload([]byte("null")))
	assert.Nil(t, ParsePayload([]byte(`"text"`)))
	assert.Nil(t, ParsePayload([]byte(`[{"ret":0}]`)))
	assert.Nil(t, ParsePayload([]byte(`{"ret":`)))

	p := ParsePayload([]byte(`{"ret":0,"status":"Success","id":12345678901}`))
	require.NotNil(t, p)
	assert.Equal(t, json.Number("12345678901"), p["id"])
}

func TestPayloadRet(t *testing.T) {
	tests := []struct {
		name string
		p    Payload
		want int
		ok   bool
	}{
		{"number", ParsePayload([]byte(`{"ret":999}`)), 999, true},
		{"integral float literal", ParsePayload([]byte(`{"ret":1.0}`)), 1, true},
		{"fraction", ParsePayload([]byte(`{"ret":1.5}`)), 0, false},
		{"string", ParsePayload([]byte(`{"ret":"0"}`)), 0, false},
		{"missing", ParsePayload([]byte(`{}`)), 0, false},
		{"go float", Payload{"ret": float64(2)}, 2, true},
		{"go int", Payload{"ret": 3}, 3, true},
		{"go int64", Payload{"ret": int64(4)}, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.p.Ret()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadStatus(t *testing.T) {
	s, ok := Payload{"status": "Not logged in"}.Status()
	assert.True(t, ok)
	assert.Equal(t, "Not logged in", s)

	_, ok = Payload{"status": 1}.Status()
	assert.False(t, ok)
}

func TestPayloadDecode(t *testing.T) {
	p := ParsePayload([]byte(`{"ret":0,"user":{"id":9,"displayname":"Freegler"}}`))

	var out struct {
		Ret  int `json:"ret"`
		User struct {
			ID          int64  `json:"id"`
			DisplayName string `json:"displayname"`
		} `json:"user"`
	}
	require.NoError(t, p.Decode(&out))
	assert.Equal(t, int64(9), out.User.ID)
	assert.Equal(t, "Freegler", out.User.DisplayName)
}
