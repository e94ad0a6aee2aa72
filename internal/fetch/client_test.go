package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpl-tools/fpl-scorer/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(store.NewJSONStore(t.TempDir()))
	c.BaseURL = srv.URL
	c.Sleep = 0
	return c, &hits
}

func TestFixtures_DecodesAndCaches(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fixtures/", r.URL.Path)
		assert.Equal(t, "fpl-scorer/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"id":1,"event":3,"team_h":1,"team_a":2},{"id":2,"event":null}]`))
	})

	fx, err := c.Fixtures(context.Background())
	require.NoError(t, err)
	require.Len(t, fx, 2)
	require.NotNil(t, fx[0].Event)
	assert.Equal(t, 3, *fx[0].Event)
	assert.Nil(t, fx[1].Event)

	_, err = c.Fixtures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second call should come from cache")
	assert.True(t, c.Store.Exists("fixtures/fixtures.json"))
}

func TestFetchRaw_RefreshBypassesCache(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history":[],"fixtures":[]}`))
	})
	c.Refresh = true

	for i := 0; i < 2; i++ {
		_, err := c.ElementSummary(context.Background(), 5)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestElementSummary_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The game is being updated.", http.StatusNotFound)
	})

	_, err := c.ElementSummary(context.Background(), 99999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.False(t, c.Store.Exists("element-summary/99999.json"))
}

func TestElementSummary_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.ElementSummary(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestElementSummary_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history": [`))
	})
	c.DisableWrite = true

	_, err := c.ElementSummary(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchRaw_TransportError(t *testing.T) {
	c := NewClient(nil)
	c.BaseURL = "http://127.0.0.1:1"
	c.Sleep = 0

	_, err := c.FetchRaw(context.Background(), "/fixtures/", "", false)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBootstrapStatic(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_players":100,"elements":[{"id":5,"web_name":"Gabriel","element_type":2,"points_per_game":"4.5","selected_by_percent":"20.0"}]}`))
	})

	bs, err := c.BootstrapStatic(context.Background())
	require.NoError(t, err)
	require.Len(t, bs.Elements, 1)
	assert.InDelta(t, 4.5, bs.Elements[0].PPG(), 1e-9)
	assert.InDelta(t, 0.2, bs.Elements[0].Ownership(), 1e-9)
}

func TestFetchRaw_MaxAgeRefetchesStaleBody(t *testing.T) {
	var body atomic.Value
	body.Store(`{"history":[],"fixtures":[]}`)
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body.Load().(string)))
	})
	c.MaxAge = time.Minute

	s, err := c.ElementSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, s.History)

	body.Store(`{"history":[{"element":7,"fixture":201,"minutes":90,"total_points":9}],"fixtures":[]}`)

	s, err = c.ElementSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, s.History, "fresh cache entry is served")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(c.Store.Path("element-summary/7.json"), old, old))

	s, err = c.ElementSummary(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, s.History, 1)
	assert.Equal(t, 9, s.History[0].TotalPoints)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}
