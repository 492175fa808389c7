package commands

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freegle/iznik-api/api"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probe.yaml")
	content := "api:\n  base: " + baseURL + "\n  retry:\n    delay: 1ms\nreport:\n  sink: none\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRequestCommand(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "/api/message", r.URL.Path)
		assert.Equal(t, "PATCH", r.Header.Get(api.HeaderMethodOverride))
		assert.Equal(t, "12", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"ret":0,"status":"Success"}`))
	}))
	defer server.Close()

	out, err := execute(t, "request", "post", "/message",
		"--config", writeConfig(t, server.URL+"/api"),
		"--param", "id=12",
		"--override", "patch",
		"--data", `{"subject":"OFFER: sofa"}`,
	)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "success", got["outcome"])
	assert.Equal(t, "ok", got["rule"])
}

func TestRequestCommandFatal(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte(`{"ret":5,"status":"Some error"}`))
	}))
	defer server.Close()

	_, err := execute(t, "request", "GET", "/message", "--config", writeConfig(t, server.URL))
	require.Error(t, err)
	assert.True(t, api.IsErrorKind(err, api.KindApplication))
}

func TestRequestCommandBadFlags(t *testing.T) {
	_, err := execute(t, "request", "GET", "/message", "--param", "novalue")
	assert.ErrorContains(t, err, "invalid --param")

	_, err = execute(t, "request", "POST", "/message", "--data", "{")
	assert.ErrorContains(t, err, "invalid --data")

	_, err = execute(t, "request", "GET")
	assert.Error(t, err)
}

func TestEventsCommand(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "/communityevent", r.URL.Path)
		_, _ = w.Write([]byte(`{"ret":0,"communityevents":[{"id":4,"title":"b","dates":[]},{"id":1,"title":"a","dates":[]}]}`))
	}))
	defer server.Close()

	out, err := execute(t, "events", "--config", writeConfig(t, server.URL))
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(1), got[0]["id"])
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "iznik-probe version test")
}
