package omada

import (
	"context"
	"fmt"
	"net/http"
)

// ListScenarios returns the site scenario names the controller knows, e.g. "Office".
func (c *Client) ListScenarios(ctx context.Context) ([]string, error) {
	raw, err := c.doEnvelope(ctx, http.MethodGet, scenariosPath, nil)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	var scenarios []string
	if err := c.decodeResult(raw, &scenarios); err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	return scenarios, nil
}
