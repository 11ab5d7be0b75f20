package api

import (
	"context"
	"fmt"
	"net/http"
)

// SaveAnniversary creates an anniversary, or renames the one already on that date.
func (c *Client) SaveAnniversary(ctx context.Context, a AnniversaryCreate) (Anniversary, error) {
	var payload Anniversary
	if err := c.do(ctx, http.MethodPost, "/api/anniversary/", a, &payload); err != nil {
		return Anniversary{}, err
	}
	return payload, nil
}

// Anniversaries lists the couple's anniversaries.
func (c *Client) Anniversaries(ctx context.Context) ([]Anniversary, error) {
	var payload []Anniversary
	if err := c.do(ctx, http.MethodGet, "/api/anniversary/", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// MonthAnniversaries returns the anniversaries that recur in month, keyed by day.
func (c *Client) MonthAnniversaries(ctx context.Context, year, month int) (map[int]AnniversaryDay, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	var payload map[int]AnniversaryDay
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/anniversary/month/%d/%d", year, month), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// DeleteAnniversary removes an anniversary.
func (c *Client) DeleteAnniversary(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/anniversary/%d", id), nil, nil)
}
