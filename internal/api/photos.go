package api

import (
	"context"
	"fmt"
	"net/http"
)

// UploadMonthlyPhoto sets the couple's photo for a month, replacing any previous one.
func (c *Client) UploadMonthlyPhoto(ctx context.Context, year, month int, file Attachment) (MonthlyPhoto, error) {
	if err := checkMonth(month); err != nil {
		return MonthlyPhoto{}, err
	}
	body, err := newMultipartBody(nil, []fileField{{name: "file", attachment: file}})
	if err != nil {
		return MonthlyPhoto{}, fmt.Errorf("encode photo: %w", err)
	}
	var payload MonthlyPhoto
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/photos/upload/%d/%d", year, month), body, &payload); err != nil {
		return MonthlyPhoto{}, err
	}
	return payload, nil
}

// MonthlyPhoto returns the photo for a month, or nil when there is none.
func (c *Client) MonthlyPhoto(ctx context.Context, year, month int) (*MonthlyPhoto, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	var payload *MonthlyPhoto
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/photos/%d/%d", year, month), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
