package seed

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/qrpulse/qrpulse/internal/projection"
	"golang.org/x/sync/errgroup"
)

// Summary counts the outcome of the posted clicks.
type Summary struct {
	Succeeded int
	Failed    int
}

var views = []struct {
	title string
	path  string
}{
	{"Hourly", projection.PathLastDayByHour},
	{"Daily", projection.PathLastWeekByDay},
	{"Weekly", projection.PathLastMonthByWeek},
}

// Post sends every (id, timestamp) pair of sc. With concurrency > 1 up to
// that many requests are in flight at once. Individual failures are written
// to out and counted, not returned.
func Post(ctx context.Context, c *Client, sc Scenario, concurrency int, out io.Writer) Summary {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		ok, failed atomic.Int64
		mu         sync.Mutex
	)
	report := func(id, ts string) {
		status, body, err := c.PostClick(ctx, id, ts)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed.Add(1)
			fmt.Fprintf(out, "ISSUE: %d code, %s message, %s error\n", status, body, err)
			return
		}
		ok.Add(1)
		fmt.Fprintf(out, "SUCCESS: %d code, %s message\n", status, body)
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for _, id := range sc.IDs {
		for _, ts := range sc.Timestamps {
			g.Go(func() error {
				report(id, ts)
				return nil
			})
		}
	}
	_ = g.Wait()

	return Summary{Succeeded: int(ok.Load()), Failed: int(failed.Load())}
}

// PrintViews writes the three windowed views of each id to out, keys sorted.
func PrintViews(ctx context.Context, c *Client, ids []string, out io.Writer) error {
	var firstErr error
	for _, id := range ids {
		for _, v := range views {
			counts, err := c.View(ctx, v.path, id)
			if err != nil {
				fmt.Fprintf(out, "Error getting %s data for %s, error: %s\n", v.title, id, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			fmt.Fprintf(out, "%s data for %s:\n", v.title, id)
			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "   %s: %d\n", k, counts[k])
			}
		}
	}
	return firstErr
}
