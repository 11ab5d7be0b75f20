package api

import (
	"time"
)

// Backend timestamps are naive ISO datetimes, e.g. 2024-05-01T21:04:05.123456.
const backendTimestampLayout = "2006-01-02T15:04:05.999999999"

// LoginRequest carries OAuth2 password-form credentials. Username holds the email.
type LoginRequest struct {
	Username string
	Password string
}

// AuthResponse mirrors the token payload returned by /api/auth/login.
type AuthResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest mirrors the /api/auth/register payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// User mirrors the backend user schema.
type User struct {
	ID           int64  `json:"id" validate:"gt=0"`
	Email        string `json:"email" validate:"required"`
	Name         string `json:"name"`
	PartnerID    *int64 `json:"partner_id"`
	ReminderTime string `json:"reminder_time"`
	CreatedAt    string `json:"created_at"`
	Partner      *User  `json:"partner"`
}

// HasPartner reports whether the user is paired.
func (u User) HasPartner() bool {
	return u.PartnerID != nil && *u.PartnerID > 0
}

// DisplayName returns the name when set, otherwise the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (u User) ParsedCreatedAt() time.Time {
	return parseTime(u.CreatedAt)
}

// UserUpdate carries the optional profile fields accepted by PUT /api/users/me.
type UserUpdate struct {
	Name         *string `json:"name,omitempty"`
	ReminderTime *string `json:"reminder_time,omitempty"`
}

// UserSummary is the reduced user shape returned by /api/users/search.
type UserSummary struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Email string `json:"email" validate:"required"`
	Name  string `json:"name"`
}

// PartnerRequest mirrors a pairing request between two users.
type PartnerRequest struct {
	ID          int64  `json:"id" validate:"gt=0"`
	RequesterID int64  `json:"requester_id" validate:"gt=0"`
	RecipientID int64  `json:"recipient_id" validate:"gt=0"`
	Status      string `json:"status" validate:"required"`
	CreatedAt   string `json:"created_at"`
	Requester   User   `json:"requester"`
	Recipient   User   `json:"recipient"`
}

// Incoming reports whether the request was sent to userID.
func (p PartnerRequest) Incoming(userID int64) bool {
	return p.RecipientID == userID
}

// PushSubscription mirrors a Web Push subscription.
type PushSubscription struct {
	Endpoint string   `json:"endpoint"`
	Keys     PushKeys `json:"keys"`
}

// PushKeys holds the subscription's public key material.
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Message is the acknowledgement body returned by mutation endpoints.
type Message struct {
	Message string `json:"message"`
}

// DiaryCreate carries the editable diary fields.
type DiaryCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Diary mirrors a diary entry.
type Diary struct {
	ID              int64  `json:"id" validate:"gt=0"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	AuthorID        int64  `json:"author_id" validate:"gt=0"`
	CreatedAt       string `json:"created_at"`
	IsReadByPartner bool   `json:"is_read_by_partner"`
	// Photos is only present when the backend includes attachments.
	Photos []DiaryPhoto `json:"photos,omitempty" validate:"omitempty,dive"`
}

// DiaryPhoto is a photo attached to a diary entry.
type DiaryPhoto struct {
	ID               int64  `json:"id" validate:"gt=0"`
	DiaryID          int64  `json:"diary_id" validate:"gt=0"`
	PhotoURL         string `json:"photo_url" validate:"required"`
	OriginalFilename string `json:"original_filename,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (d Diary) ParsedCreatedAt() time.Time {
	return parseTime(d.CreatedAt)
}

// DayStatus is one day of /api/diary/month/{year}/{month}.
type DayStatus struct {
	Date            string `json:"date" validate:"required"`
	Status          string `json:"status" validate:"oneof=past today future"`
	HasMyDiary      bool   `json:"has_my_diary"`
	HasPartnerDiary bool   `json:"has_partner_diary"`
	IsComplete      bool   `json:"is_complete"`
}

// DayDiaries mirrors /api/diary/date/{year}/{month}/{day}.
type DayDiaries struct {
	Date         string `json:"date" validate:"required"`
	MyDiary      *Diary `json:"my_diary"`
	PartnerDiary *Diary `json:"partner_diary"`
	MyName       string `json:"my_name"`
	PartnerName  string `json:"partner_name"`
	CanWrite     bool   `json:"can_write"`
}

// AnniversaryCreate carries a date (YYYY-MM-DD) and its name.
type AnniversaryCreate struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// Anniversary mirrors a stored anniversary.
type Anniversary struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Date      string `json:"date" validate:"required"`
	Name      string `json:"name"`
	UserID    int64  `json:"user_id"`
	PartnerID int64  `json:"partner_id"`
}

// ParsedDate returns the anniversary date, or the zero time when malformed.
func (a Anniversary) ParsedDate() time.Time {
	return parseDate(a.Date)
}

// AnniversaryDay is one entry of /api/anniversary/month/{year}/{month}.
type AnniversaryDay struct {
	Name string `json:"name" validate:"required"`
	Date string `json:"date" validate:"required"`
}

// MonthlyPhoto mirrors the couple's photo for a month.
type MonthlyPhoto struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Year      int    `json:"year"`
	Month     int    `json:"month" validate:"min=1,max=12"`
	CoupleID  string `json:"couple_id"`
	PhotoURL  string `json:"photo_url" validate:"required"`
	CreatedAt string `json:"created_at"`
	CreatedBy int64  `json:"created_by"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}

func parseDate(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
