package feed

import (
	"context"
	"fmt"
	"time"

	"subcal/internal/model"
	"subcal/internal/timeline"
)

// Client aggregates all configured sources behind the engine's single
// read operation. A failure on any source fails the whole call so the
// loader never advances its range over a partial result; the identical
// widen can then be retried safely.
type Client struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location
	now     func() time.Time
}

func NewClient(fetcher *Fetcher, sources []Source, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		fetcher: fetcher,
		sources: sources,
		loc:     loc,
		now:     time.Now,
	}
}

// FetchEvents fetches and decodes every source for the requested window.
func (c *Client) FetchEvents(ctx context.Context, beforeDays, afterDays int) (timeline.Batch, error) {
	var batch timeline.Batch
	window := c.window(beforeDays, afterDays)

	for _, src := range c.sources {
		res, err := c.fetcher.FetchOne(ctx, src)
		if err != nil {
			return timeline.Batch{}, fmt.Errorf("fetch %s: %w", src.ID, err)
		}

		switch src.Kind {
		case KindICS:
			events, err := ParseICS(src, res.Body, window)
			if err != nil {
				return timeline.Batch{}, fmt.Errorf("parse %s: %w", src.ID, err)
			}
			batch.Events = append(batch.Events, events...)
		default:
			decoded, err := DecodeBatch(res.Body)
			if err != nil {
				return timeline.Batch{}, fmt.Errorf("decode %s: %w", src.ID, err)
			}
			batch.Events = append(batch.Events, decoded.Events...)
			for key, events := range decoded.ByDate {
				if batch.ByDate == nil {
					batch.ByDate = make(map[string][]model.RawEvent)
				}
				batch.ByDate[key] = append(batch.ByDate[key], events...)
			}
		}
	}

	return batch, nil
}

// window converts day counts around today into absolute bounds in the
// viewer's zone, midnight to end of the last requested day.
func (c *Client) window(beforeDays, afterDays int) Window {
	now := c.now().In(c.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return Window{
		Start: dayStart.AddDate(0, 0, -beforeDays),
		End:   dayStart.AddDate(0, 0, afterDays+1).Add(-time.Second),
	}
}
