package omada

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Band selects which radio a radio setting applies to.
type Band string

const (
	Band2G Band = "2.4GHz"
	Band5G Band = "5GHz"
)

// ParseBand accepts "2.4GHz"/"2g" and "5GHz"/"5g".
func ParseBand(s string) (Band, error) {
	switch s {
	case string(Band2G), "2g", "2.4":
		return Band2G, nil
	case string(Band5G), "5g", "5":
		return Band5G, nil
	}
	return "", fmt.Errorf("unknown band %q (expected %s or %s)", s, Band2G, Band5G)
}

// LEDStatus is an EAP's LED setting.
type LEDStatus int

const (
	LEDOff LEDStatus = iota
	LEDOn
	LEDSiteDefault
)

// RadioSetting is the radio part of an EAP's settings.
type RadioSetting struct {
	RadioEnable bool `json:"radioEnable"`
}

// Device is one row of a site's device list, or an EAP's detail.
type Device struct {
	Type            string        `json:"type,omitempty"`
	MAC             string        `json:"mac" validate:"required"`
	Name            string        `json:"name,omitempty"`
	Model           string        `json:"model,omitempty"`
	IP              string        `json:"ip,omitempty"`
	Status          int           `json:"status,omitempty"`
	FirmwareVersion string        `json:"firmwareVersion,omitempty"`
	LEDSetting      *LEDStatus    `json:"ledSetting,omitempty"`
	RadioSetting2g  *RadioSetting `json:"radioSetting2g,omitempty"`
	RadioSetting5g  *RadioSetting `json:"radioSetting5g,omitempty"`

	// Fields holds every field the controller sent, including the ones above.
	Fields Record `json:"-"`
}

func (d *Device) UnmarshalJSON(data []byte) error {
	type plain Device
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields Record
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*d = Device(p)
	d.Fields = fields
	return nil
}

// Record returns the device as a row addressable by field name.
func (d Device) Record() Record {
	if d.Fields != nil {
		return d.Fields
	}
	b, err := json.Marshal(d)
	if err != nil {
		return Record{"mac": d.MAC}
	}
	var rec Record
	_ = json.Unmarshal(b, &rec)
	return rec
}

type siteTarget struct {
	Site string `json:"site" validate:"required,site_key"`
}

// checkSite resolves an empty siteKey to the client's site and validates it.
func (c *Client) checkSite(siteKey string) (string, error) {
	target := siteTarget{Site: c.siteOrDefault(siteKey)}
	if err := c.validator.Validate(&target); err != nil {
		return "", err
	}
	return target.Site, nil
}

// eapTarget is validated before any EAP call goes out.
type eapTarget struct {
	MAC  string `json:"mac" validate:"required"`
	Site string `json:"site" validate:"required,site_key"`
}

type radioRequest struct {
	MAC     string `json:"mac" validate:"required"`
	Site    string `json:"site" validate:"required,site_key"`
	Band    Band   `json:"band" validate:"oneof=2.4GHz 5GHz"`
	Enabled bool   `json:"enabled"`
}

type ledRequest struct {
	MAC    string    `json:"mac" validate:"required"`
	Site   string    `json:"site" validate:"required,site_key"`
	Status LEDStatus `json:"ledSetting" validate:"min=0,max=2"`
}

type radioPatch struct {
	RadioSetting2g *RadioSetting `json:"radioSetting2g,omitempty"`
	RadioSetting5g *RadioSetting `json:"radioSetting5g,omitempty"`
}

type ledPatch struct {
	LEDSetting LEDStatus `json:"ledSetting"`
}

// ListDevices returns every device of a site in controller order. An empty siteKey means the client's site.
func (c *Client) ListDevices(ctx context.Context, siteKey string) ([]Device, error) {
	siteKey, err := c.checkSite(siteKey)
	if err != nil {
		return nil, err
	}

	raw, err := c.doEnvelope(ctx, http.MethodGet, siteDevicesPath(siteKey), nil)
	if err != nil {
		return nil, fmt.Errorf("listing devices of site %s: %w", siteKey, err)
	}
	var devices []Device
	if err := c.decodeResult(raw, &devices); err != nil {
		return nil, fmt.Errorf("listing devices of site %s: %w", siteKey, err)
	}
	return devices, nil
}

// GetDevice returns the detail of one EAP.
func (c *Client) GetDevice(ctx context.Context, mac, siteKey string) (*Device, error) {
	target := eapTarget{MAC: mac, Site: c.siteOrDefault(siteKey)}
	if err := c.validator.Validate(&target); err != nil {
		return nil, err
	}

	raw, err := c.doEnvelope(ctx, http.MethodGet, eapPath(target.Site, target.MAC), nil)
	if err != nil {
		return nil, fmt.Errorf("getting device %s: %w", mac, err)
	}
	var device Device
	if err := c.decodeResult(raw, &device); err != nil {
		return nil, fmt.Errorf("getting device %s: %w", mac, err)
	}
	return &device, nil
}

// SetRadio enables or disables one radio band of an EAP and returns the controller's raw result.
// The change is not read back.
func (c *Client) SetRadio(ctx context.Context, mac string, band Band, enabled bool, siteKey string) (json.RawMessage, error) {
	req := radioRequest{
		MAC:     mac,
		Site:    c.siteOrDefault(siteKey),
		Band:    band,
		Enabled: enabled,
	}
	if err := c.validator.Validate(&req); err != nil {
		return nil, err
	}

	setting := &RadioSetting{RadioEnable: enabled}
	patch := radioPatch{}
	if band == Band5G {
		patch.RadioSetting5g = setting
	} else {
		patch.RadioSetting2g = setting
	}

	raw, err := c.doEnvelope(ctx, http.MethodPatch, eapPath(req.Site, req.MAC), &patch)
	if err != nil {
		return nil, fmt.Errorf("setting %s radio of %s: %w", band, mac, err)
	}
	return raw, nil
}

// SetLEDStatus sets an EAP's LED to off, on or the site default.
func (c *Client) SetLEDStatus(ctx context.Context, mac string, status LEDStatus, siteKey string) (json.RawMessage, error) {
	req := ledRequest{
		MAC:    mac,
		Site:   c.siteOrDefault(siteKey),
		Status: status,
	}
	if err := c.validator.Validate(&req); err != nil {
		return nil, err
	}

	raw, err := c.doEnvelope(ctx, http.MethodPatch, eapPath(req.Site, req.MAC), &ledPatch{LEDSetting: status})
	if err != nil {
		return nil, fmt.Errorf("setting LED of %s: %w", mac, err)
	}
	return raw, nil
}
