package omada

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// page is the paged list shape of `result` for collection endpoints.
type page[T any] struct {
	TotalRows   int `json:"totalRows"`
	CurrentPage int `json:"currentPage,omitempty"`
	CurrentSize int `json:"currentSize,omitempty"`
	Data        []T `json:"data"`
}

// decodePage unmarshals a paged result and validates each row.
func decodePage[T any](c *Client, raw json.RawMessage) ([]T, error) {
	var p page[T]
	if err := c.decodeResult(raw, &p); err != nil {
		return nil, err
	}
	if err := c.validateResult(&p.Data); err != nil {
		return nil, err
	}
	return p.Data, nil
}

// Site is one row of the controller's site list.
type Site struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Region   string `json:"region,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
	Scenario string `json:"scenario,omitempty"`
	Type     int    `json:"type,omitempty"`
}

// ListSites returns every site the logged-in admin can see.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	raw, err := c.doEnvelope(ctx, http.MethodGet, sitesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	sites, err := decodePage[Site](c, raw)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	return sites, nil
}

// ListSiteSettings returns the settings object of a site as a single record.
func (c *Client) ListSiteSettings(ctx context.Context, siteKey string) (Record, error) {
	siteKey, err := c.checkSite(siteKey)
	if err != nil {
		return nil, err
	}

	raw, err := c.doEnvelope(ctx, http.MethodGet, siteSettingPath(siteKey), nil)
	if err != nil {
		return nil, fmt.Errorf("getting settings of site %s: %w", siteKey, err)
	}
	var settings Record
	if err := c.decodeResult(raw, &settings); err != nil {
		return nil, fmt.Errorf("getting settings of site %s: %w", siteKey, err)
	}
	return settings, nil
}
