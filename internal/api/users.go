package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Me returns the authenticated user, including the partner when paired.
func (c *Client) Me(ctx context.Context) (User, error) {
	var payload User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &payload); err != nil {
		return User{}, err
	}
	return payload, nil
}

// UpdateMe changes the profile fields that are set in update.
func (c *Client) UpdateMe(ctx context.Context, update UserUpdate) (User, error) {
	var payload User
	if err := c.do(ctx, http.MethodPut, "/api/users/me", update, &payload); err != nil {
		return User{}, err
	}
	return payload, nil
}

// SearchUsers finds users whose email contains the query.
func (c *Client) SearchUsers(ctx context.Context, email string) ([]UserSummary, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email query required")
	}
	values := url.Values{}
	values.Set("email", email)
	rel := &url.URL{Path: "/api/users/search", RawQuery: values.Encode()}
	var payload []UserSummary
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SendPartnerRequest asks the user with recipientEmail to pair.
func (c *Client) SendPartnerRequest(ctx context.Context, recipientEmail string) (PartnerRequest, error) {
	body := struct {
		RecipientEmail string `json:"recipient_email"`
	}{RecipientEmail: recipientEmail}
	var payload PartnerRequest
	if err := c.do(ctx, http.MethodPost, "/api/users/partner-request", body, &payload); err != nil {
		return PartnerRequest{}, err
	}
	return payload, nil
}

// PartnerRequests lists pending requests sent by or to the current user.
func (c *Client) PartnerRequests(ctx context.Context) ([]PartnerRequest, error) {
	var payload []PartnerRequest
	if err := c.do(ctx, http.MethodGet, "/api/users/partner-requests", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AcceptPartnerRequest pairs the current user with the request's sender.
func (c *Client) AcceptPartnerRequest(ctx context.Context, requestID int64) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("/api/users/partner-request/%d/accept", requestID), nil)
}

// RejectPartnerRequest declines a pending request.
func (c *Client) RejectPartnerRequest(ctx context.Context, requestID int64) (Message, error) {
	return c.message(ctx, http.MethodPut, fmt.Sprintf("/api/users/partner-request/%d/reject", requestID), nil)
}

// SavePushSubscription stores the Web Push subscription for partner notifications.
func (c *Client) SavePushSubscription(ctx context.Context, sub PushSubscription) (Message, error) {
	return c.message(ctx, http.MethodPost, "/api/users/push-subscription", sub)
}

// DisconnectPartner dissolves the current pairing.
func (c *Client) DisconnectPartner(ctx context.Context) (Message, error) {
	return c.message(ctx, http.MethodDelete, "/api/users/partner/disconnect", nil)
}

// DeleteAccount removes the account and all of its data.
func (c *Client) DeleteAccount(ctx context.Context) (Message, error) {
	return c.message(ctx, http.MethodDelete, "/api/users/account", nil)
}

func (c *Client) message(ctx context.Context, method, path string, body any) (Message, error) {
	var payload Message
	if err := c.do(ctx, method, path, body, &payload); err != nil {
		return Message{}, err
	}
	return payload, nil
}
