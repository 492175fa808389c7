package api

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restclient "github.com/freegle/iznik-api/http"
	"github.com/freegle/iznik-api/internal/testutil"
)

type nilTransport struct{}

func (nilTransport) Do(context.Context, string, *restclient.Request) (*restclient.Response, error) {
	return nil, nil
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"typed timeout", restclient.NewTimeoutError("slow", time.Second, nil), FailureTimeout},
		{"typed abort", restclient.NewAbortedError("gone", context.Canceled), FailureAborted},
		{"typed network", restclient.NewNetworkError("refused", nil), FailureOther},
		{"timeout message", errors.New(testutil.TestTimeoutMessage), FailureTimeout},
		{"timeout message any case", errors.New("Gateway TIMEOUT"), FailureTimeout},
		{"aborted message", errors.New(testutil.TestAbortedMessage), FailureAborted},
		{"wrapped aborted message", fmt.Errorf("xhr: %w", errors.New("ABORTED")), FailureAborted},
		{"anything else", errors.New("Network Error"), FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := classifyFailure(tt.err)
			assert.Equal(t, tt.want, f.Kind)
			assert.Equal(t, tt.err.Error(), f.Message)
			assert.Same(t, tt.err, f.Err)
		})
	}
}

func TestDispatch(t *testing.T) {
	t.Run("builds the transport request", func(t *testing.T) {
		transport := newFakeTransport(fakeResponse{status: 200, body: `{"ret":0}`})
		d := NewDispatcher(testBaseURL, transport, testLogger())

		desc, err := NewRequestDescriptor(nethttp.MethodPost, "/chatrooms", RequestConfig{
			Params:  map[string]string{"chattype": "User2User"},
			Data:    map[string]any{"userid": 3},
			Headers: map[string]string{HeaderMethodOverride: nethttp.MethodPut},
		})
		require.NoError(t, err)

		out := d.Dispatch(context.Background(), desc)
		assert.True(t, out.Completed())
		assert.Equal(t, 200, out.Status)

		call := transport.call(0)
		assert.Equal(t, nethttp.MethodPost, call.method)
		assert.Equal(t, testBaseURL+"/chatrooms", call.req.URL)
		assert.Equal(t, "User2User", call.req.Query["chattype"])
		assert.Equal(t, nethttp.MethodPut, call.req.Headers[HeaderMethodOverride])
		assert.JSONEq(t, `{"userid":3}`, string(call.req.Body))
	})

	t.Run("transport errors become failures", func(t *testing.T) {
		transport := newFakeTransport(fakeResponse{err: errors.New(testutil.TestTimeoutMessage)})
		d := NewDispatcher(testBaseURL, transport, testLogger())
		desc, _ := NewRequestDescriptor(nethttp.MethodGet, "/message", RequestConfig{})

		out := d.Dispatch(context.Background(), desc)
		require.False(t, out.Completed())
		assert.Equal(t, FailureTimeout, out.Failure.Kind)
	})

	t.Run("empty response is forwarded", func(t *testing.T) {
		transport := newFakeTransport(fakeResponse{status: 0, body: ""})
		d := NewDispatcher(testBaseURL, transport, testLogger())
		desc, _ := NewRequestDescriptor(nethttp.MethodGet, "/message", RequestConfig{})

		out := d.Dispatch(context.Background(), desc)
		assert.True(t, out.Completed())
		assert.Zero(t, out.Status)
		assert.Empty(t, out.Raw)
	})

	t.Run("nil response is forwarded as empty", func(t *testing.T) {
		d := NewDispatcher(testBaseURL, nilTransport{}, testLogger())
		desc, _ := NewRequestDescriptor(nethttp.MethodGet, "/message", RequestConfig{})

		out := d.Dispatch(context.Background(), desc)
		assert.True(t, out.Completed())
		assert.Zero(t, out.Status)
	})
}

func TestDispatchOverRealTransport(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "/apiv2/user", r.URL.Path)
		assert.Equal(t, nethttp.MethodDelete, r.Header.Get(HeaderMethodOverride))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ret":0,"status":"Success"}`))
	}))
	defer server.Close()

	c, err := New(
		WithBaseURL(server.URL+"/apiv2/"),
		WithTransport(restclient.NewClient(testLogger())),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)

	res, err := c.Del(context.Background(), "/user", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Rule)
}
