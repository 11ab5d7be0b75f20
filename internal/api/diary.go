package api

import (
	"context"
	"fmt"
	"net/http"
)

// CreateDiary writes today's entry. The request is multipart so photos can
// travel with the text fields.
func (c *Client) CreateDiary(ctx context.Context, entry DiaryCreate, photos ...Attachment) (Diary, error) {
	files := make([]fileField, 0, len(photos))
	for _, p := range photos {
		files = append(files, fileField{name: "photos", attachment: p})
	}
	body, err := newMultipartBody([]formField{
		{name: "title", value: entry.Title},
		{name: "content", value: entry.Content},
	}, files)
	if err != nil {
		return Diary{}, fmt.Errorf("encode diary: %w", err)
	}
	var payload Diary
	if err := c.do(ctx, http.MethodPost, "/api/diary/", body, &payload); err != nil {
		return Diary{}, err
	}
	return payload, nil
}

// UpdateDiary edits one of the user's own entries.
func (c *Client) UpdateDiary(ctx context.Context, diaryID int64, entry DiaryCreate) (Diary, error) {
	var payload Diary
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/diary/%d", diaryID), entry, &payload); err != nil {
		return Diary{}, err
	}
	return payload, nil
}

// MyDiaries lists the user's entries, newest first.
func (c *Client) MyDiaries(ctx context.Context) ([]Diary, error) {
	var payload []Diary
	if err := c.do(ctx, http.MethodGet, "/api/diary/my", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PartnerDiaries lists the partner's entries for today. The backend only
// reveals them once the user has written their own.
func (c *Client) PartnerDiaries(ctx context.Context) ([]Diary, error) {
	var payload []Diary
	if err := c.do(ctx, http.MethodGet, "/api/diary/partner", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// MonthDiaries returns per-day writing status keyed by day of month.
func (c *Client) MonthDiaries(ctx context.Context, year, month int) (map[int]DayStatus, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	var payload map[int]DayStatus
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/diary/month/%d/%d", year, month), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// DayDiaries returns both partners' entries for one date.
func (c *Client) DayDiaries(ctx context.Context, year, month, day int) (DayDiaries, error) {
	if err := checkMonth(month); err != nil {
		return DayDiaries{}, err
	}
	var payload DayDiaries
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/diary/date/%d/%d/%d", year, month, day), nil, &payload); err != nil {
		return DayDiaries{}, err
	}
	return payload, nil
}

func checkMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	return nil
}
