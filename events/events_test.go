package events

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freegle/iznik-api/api"
	"github.com/freegle/iznik-api/logger"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T, handler nethttp.HandlerFunc) *API {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := api.New(
		api.WithBaseURL(server.URL+"/api"),
		api.WithLogger(logger.NewWithWriter(io.Discard, "info", false, nil)),
		api.WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)

	a := NewAPI(c)
	a.now = func() time.Time { return testNow }
	return a
}

func TestFetch(t *testing.T) {
	a := newTestAPI(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "/api/communityevent", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("groupid"))
		_, _ = w.Write([]byte(`{
			"ret": 0,
			"status": "Success",
			"communityevents": [
				{"id": 2, "title": "Repair cafe", "dates": [
					{"start": "2026-05-01T10:00:00Z", "end": "2026-05-01T12:00:00Z"},
					{"start": "2026-05-20T10:00:00Z", "end": "2026-05-20T12:00:00Z"},
					{"start": "2026-05-13T10:00:00Z", "end": "2026-05-14T12:00:00Z"}
				]},
				{"id": 3, "title": "Past swap", "dates": [
					{"start": "2026-04-01T10:00:00Z", "end": "2026-04-01T12:00:00Z"}
				]}
			],
			"context": {"end": "2026-05-13", "id": 3}
		}`))
	})

	page, err := a.Fetch(context.Background(), map[string]string{"groupid": "12"})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)

	repair := page.Events[0]
	assert.Equal(t, "Repair cafe", repair.Title)
	require.NotNil(t, repair.Earliest)
	assert.Equal(t, time.Date(2026, 5, 13, 10, 0, 0, 0, time.UTC), repair.Earliest.Start.UTC())
	require.NotNil(t, repair.Earliest.Display)
	assert.Equal(t, "Wed, 13th May 10:00", repair.Earliest.Display.Start)
	assert.Equal(t, "Thu, 14th May 12:00", repair.Earliest.Display.End)

	assert.Nil(t, page.Events[1].Earliest)
	assert.NotNil(t, page.Next())
}

func TestFetchBackendError(t *testing.T) {
	a := newTestAPI(t, func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte(`{"ret":2,"status":"Invalid group"}`))
	})

	_, err := a.Fetch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, api.IsErrorKind(err, api.KindApplication))
}

func TestFetchGroups(t *testing.T) {
	var inFlight, peak atomic.Int32
	a := newTestAPI(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)

		// every group shares event 100
		group := r.URL.Query().Get("groupid")
		_, _ = fmt.Fprintf(w, `{"ret":0,"communityevents":[
			{"id":%s,"title":"g","dates":[{"start":"2026-06-%sT10:00:00Z","end":"2026-06-%sT11:00:00Z"}]},
			{"id":100,"title":"shared","dates":[{"start":"2026-05-11T10:00:00Z","end":"2026-05-11T11:00:00Z"}]}
		]}`, group, group, group)
	})

	evs, err := a.FetchGroups(context.Background(), []int64{21, 12, 15, 18, 25}, 2)
	require.NoError(t, err)
	require.Len(t, evs, 6)

	ids := make([]int64, 0, len(evs))
	for _, ev := range evs {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []int64{100, 12, 15, 18, 21, 25}, ids)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFetchGroupsFailure(t *testing.T) {
	a := newTestAPI(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Query().Get("groupid") == "2" {
			w.WriteHeader(nethttp.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ret":0,"communityevents":[]}`))
	})

	_, err := a.FetchGroups(context.Background(), []int64{1, 2, 3}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group 2")
	assert.True(t, api.IsErrorKind(err, api.KindHTTP))
}
