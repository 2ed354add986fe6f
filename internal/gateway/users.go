package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/folio-org/mod-login-sub000/internal/models"
)

type userListResponse struct {
	Users        []models.User `json:"users"`
	TotalRecords int           `json:"totalRecords"`
}

// LookupUserByUsername resolves exactly one user by username. Zero matches
// yield models.ErrUserNotFound; more than one yields models.ErrMultipleUsers.
func (c *Client) LookupUserByUsername(ctx context.Context, tc TenantContext, username string) (*models.User, error) {
	return c.lookupUser(ctx, tc, fmt.Sprintf("username==%q", username))
}

// LookupUserByID resolves exactly one user by id.
func (c *Client) LookupUserByID(ctx context.Context, tc TenantContext, id string) (*models.User, error) {
	return c.lookupUser(ctx, tc, fmt.Sprintf("id==%q", id))
}

func (c *Client) lookupUser(ctx context.Context, tc TenantContext, query string) (*models.User, error) {
	path := "/users?query=" + url.QueryEscape(query)
	req, err := c.newRequest(ctx, tc, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: user lookup failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp)
		return nil, fmt.Errorf("gateway: user lookup returned status %d", resp.StatusCode)
	}

	var list userListResponse
	if err := decodeJSON(resp, &list); err != nil {
		return nil, err
	}

	switch list.TotalRecords {
	case 0:
		return nil, models.ErrUserNotFound
	case 1:
		if len(list.Users) == 0 {
			return nil, fmt.Errorf("gateway: user lookup count and records disagree")
		}
		return &list.Users[0], nil
	default:
		return nil, models.ErrMultipleUsers
	}
}

// DeactivateUser marks a user record inactive through the identity lookup's
// companion update call. The full record is fetched and written back so
// fields this service does not model are preserved.
func (c *Client) DeactivateUser(ctx context.Context, tc TenantContext, userID string) error {
	req, err := c.newRequest(ctx, tc, http.MethodGet, "/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: user fetch failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp)
		return fmt.Errorf("gateway: user fetch returned status %d", resp.StatusCode)
	}

	var record map[string]any
	if err := decodeJSON(resp, &record); err != nil {
		return err
	}
	record["active"] = false

	req, err = c.newRequest(ctx, tc, http.MethodPut, "/users/"+url.PathEscape(userID), record)
	if err != nil {
		return err
	}

	resp, err = c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: user update failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway: user update returned status %d", resp.StatusCode)
	}

	c.logger.Info("user deactivated", slog.String("user_id", userID), slog.String("tenant", tc.Tenant))
	return nil
}
