package seed

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"github.com/qrpulse/qrpulse/internal/ingestion"
	"github.com/qrpulse/qrpulse/internal/projection"
	"github.com/stretchr/testify/require"
)

type noopPersister struct{}

func (noopPersister) Trigger()                    {}
func (noopPersister) Flush(context.Context) error { return nil }

// newTestServer wires the real handlers over an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *aggregation.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := aggregation.NewStore()
	r := gin.New()
	ingestion.NewService(store, noopPersister{}, 1, false).RegisterRoutes(r)
	projection.NewService(store, time.UTC).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ids: [id1, id2]
timestamps:
  - "2024-01-25T20:34:06"
  - "2024-02-22 03:22:06"
`), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Equal(t, []string{"id1", "id2"}, sc.IDs)
	require.Len(t, sc.Timestamps, 2)
}

func TestScenario_Validate(t *testing.T) {
	require.NoError(t, DefaultScenario().Validate())

	tests := []struct {
		name string
		sc   Scenario
	}{
		{name: "no ids", sc: Scenario{Timestamps: []string{"2024-01-25T20:34:06"}}},
		{name: "empty id", sc: Scenario{IDs: []string{""}, Timestamps: []string{"2024-01-25T20:34:06"}}},
		{name: "no timestamps", sc: Scenario{IDs: []string{"id1"}}},
		{name: "bad timestamp", sc: Scenario{IDs: []string{"id1"}, Timestamps: []string{"25/01/2024"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.sc.Validate())
		})
	}
}

func TestPost_SequentialAndConcurrentCountEveryClick(t *testing.T) {
	sc := DefaultScenario()
	want := len(sc.IDs) * len(sc.Timestamps)

	for _, concurrency := range []int{1, 8} {
		srv, store := newTestServer(t)
		var out bytes.Buffer

		summary := Post(context.Background(), NewClient(srv.URL, nil), sc, concurrency, &out)

		require.Equal(t, Summary{Succeeded: want}, summary)
		require.Equal(t, want, strings.Count(out.String(), "SUCCESS: 200 code"))
		// two identical 03:22:06 clicks plus 03:08:06 and 03:50:06
		require.Equal(t, uint64(4), store.Count("id2", aggregation.Hour, "2024-02-22 03"))
	}
}

func TestPost_ReportsRejectedClicks(t *testing.T) {
	srv, _ := newTestServer(t)
	var out bytes.Buffer

	// Validate is bypassed here on purpose to reach the server-side check.
	sc := Scenario{IDs: []string{"id1"}, Timestamps: []string{"2024-01-25T20:34:06", "not-a-time"}}
	summary := Post(context.Background(), NewClient(srv.URL, nil), sc, 1, &out)

	require.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)
	require.Contains(t, out.String(), "ISSUE: 400 code")
}

func TestPrintViews(t *testing.T) {
	srv, store := newTestServer(t)
	now := time.Now().UTC()
	require.NoError(t, store.Record("id1", now))
	require.NoError(t, store.Record("id1", now))

	var out bytes.Buffer
	require.NoError(t, PrintViews(context.Background(), NewClient(srv.URL+"/", nil), []string{"id1", "ghost"}, &out))

	text := out.String()
	require.Contains(t, text, "Hourly data for id1:\n   "+aggregation.KeyFor(aggregation.Hour, now)+": 2\n")
	require.Contains(t, text, "Daily data for id1:\n   "+aggregation.KeyFor(aggregation.Day, now)+": 2\n")
	require.Contains(t, text, "Weekly data for id1:\n   "+aggregation.KeyFor(aggregation.Week, now)+": 2\n")
	require.Contains(t, text, "Weekly data for ghost:\n")
}

func TestPrintViews_ServerDown(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Close()

	var out bytes.Buffer
	err := PrintViews(context.Background(), NewClient(srv.URL, nil), []string{"id1"}, &out)
	require.Error(t, err)
	require.Contains(t, out.String(), "Error getting Hourly data for id1")
}
