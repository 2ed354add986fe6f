package gateway

import (
	"context"
	"fmt"
	"net/http"
)

type tokenRequest struct {
	Payload tokenPayload `json:"payload"`
}

type tokenPayload struct {
	Sub    string `json:"sub"`
	UserID string `json:"user_id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type refreshTokenResponse struct {
	RefreshToken string `json:"refreshToken"`
}

// IssueAccessToken requests an access token from the token authority. The
// token is carried either in the X-Auth-Token response header or in the JSON
// body, depending on the authority's version.
func (c *Client) IssueAccessToken(ctx context.Context, tc TenantContext, sub, userID string) (string, error) {
	body := tokenRequest{Payload: tokenPayload{Sub: sub, UserID: userID}}
	req, err := c.newRequest(ctx, tc, http.MethodPost, "/token", body)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: access token request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		drain(resp)
		return "", fmt.Errorf("gateway: access token request returned status %d", resp.StatusCode)
	}

	if token := resp.Header.Get(headerToken); token != "" {
		drain(resp)
		return token, nil
	}

	var tr tokenResponse
	if err := decodeJSON(resp, &tr); err != nil {
		return "", err
	}
	if tr.Token == "" {
		return "", fmt.Errorf("gateway: access token missing from response")
	}

	return tr.Token, nil
}

// IssueRefreshToken requests a refresh token from the token authority.
func (c *Client) IssueRefreshToken(ctx context.Context, tc TenantContext, sub, userID string) (string, error) {
	body := tokenPayload{Sub: sub, UserID: userID}
	req, err := c.newRequest(ctx, tc, http.MethodPost, "/refreshtoken", body)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: refresh token request failed: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		drain(resp)
		return "", fmt.Errorf("gateway: refresh token request returned status %d", resp.StatusCode)
	}

	var rr refreshTokenResponse
	if err := decodeJSON(resp, &rr); err != nil {
		return "", err
	}
	if rr.RefreshToken == "" {
		return "", fmt.Errorf("gateway: refresh token missing from response")
	}

	return rr.RefreshToken, nil
}
