package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type configEntry struct {
	Value string `json:"value"`
}

type configListResponse struct {
	Configs      []configEntry `json:"configs"`
	TotalRecords int           `json:"totalRecords"`
}

// LookupConfigInt fetches a single integer policy value by lookup code.
// An absent record is not an error: it returns ok == false so the caller can
// fall back to its hardcoded default. An unparsable stored value is likewise
// treated as absent.
func (c *Client) LookupConfigInt(ctx context.Context, tc TenantContext, code string) (int, bool, error) {
	query := fmt.Sprintf("code==%q", code)
	path := "/configurations/entries?query=" + url.QueryEscape(query)
	req, err := c.newRequest(ctx, tc, http.MethodGet, path, nil)
	if err != nil {
		return 0, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("gateway: policy lookup failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp)
		return 0, false, fmt.Errorf("gateway: policy lookup returned status %d", resp.StatusCode)
	}

	var list configListResponse
	if err := decodeJSON(resp, &list); err != nil {
		return 0, false, err
	}
	if list.TotalRecords == 0 || len(list.Configs) == 0 {
		return 0, false, nil
	}

	value, err := strconv.Atoi(list.Configs[0].Value)
	if err != nil {
		return 0, false, nil
	}

	return value, true, nil
}
