package inventory

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/filippocastelli/go-omada/pkg/config"
	"github.com/filippocastelli/go-omada/pkg/helpers"
	"github.com/filippocastelli/go-omada/pkg/interfaces"
	"github.com/filippocastelli/go-omada/pkg/omada"
)

// Config holds inventory configuration
type Config struct {
	Site   string
	Output string
}

// Inventory is everything the dump collects.
type Inventory struct {
	Admins    omada.Records `json:"admins"`
	Sites     omada.Records `json:"sites"`
	Scenarios []string      `json:"scenarios"`
	Settings  omada.Record  `json:"settings"`
	Devices   omada.Records `json:"devices"`
	// FirstDevice is the detail of the first listed device, nil when the site has none.
	FirstDevice omada.Record `json:"firstDevice,omitempty"`
}

var deviceColumns = []string{"name", "mac", "type", "model", "ip", "status", "firmwareVersion"}

// Collect logs in, reads the controller inventory and logs out.
func Collect(ctx context.Context, api interfaces.InventoryReader, creds config.CredentialProvider, site string) (*Inventory, error) {
	log := logr.FromContextOrDiscard(ctx)

	username, password, err := creds.ProvideCredentials()
	if err != nil {
		return nil, err
	}
	if _, err := api.Login(ctx, username, password); err != nil {
		return nil, err
	}
	defer api.Logout(ctx)

	inv := &Inventory{}

	admins, err := api.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if inv.Admins, err = omada.ToRecords(admins); err != nil {
		return nil, err
	}

	sites, err := api.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	if inv.Sites, err = omada.ToRecords(sites); err != nil {
		return nil, err
	}

	if inv.Scenarios, err = api.ListScenarios(ctx); err != nil {
		return nil, err
	}
	if inv.Settings, err = api.ListSiteSettings(ctx, site); err != nil {
		return nil, err
	}

	devices, err := api.ListDevices(ctx, site)
	if err != nil {
		return nil, err
	}
	if inv.Devices, err = omada.ToRecords(devices); err != nil {
		return nil, err
	}
	log.V(1).Info("Collected inventory", "admins", len(admins), "sites", len(sites), "devices", len(devices))

	if len(devices) > 0 {
		device, err := api.GetDevice(ctx, devices[0].MAC, site)
		if err != nil {
			return nil, err
		}
		inv.FirstDevice = device.Record()
	}
	return inv, nil
}

// Run collects the inventory and writes it to w in the configured format.
func Run(ctx context.Context, api interfaces.InventoryReader, creds config.CredentialProvider, cfg Config, w io.Writer) error {
	if cfg.Output == "" {
		cfg.Output = helpers.OutputText
	}
	if err := helpers.ValidateOutput(cfg.Output); err != nil {
		return err
	}

	inv, err := Collect(ctx, api, creds, cfg.Site)
	if err != nil {
		return err
	}

	if cfg.Output == helpers.OutputJSON {
		return helpers.RenderJSON(w, inv)
	}
	return renderText(w, inv)
}

type section struct {
	title string
	body  func(io.Writer) error
}

func renderText(w io.Writer, inv *Inventory) error {
	sections := []section{
		{"Admins", func(w io.Writer) error { return helpers.RenderTable(w, inv.Admins, "name", "email", "roleName") }},
		{"Sites", func(w io.Writer) error { return helpers.RenderTable(w, inv.Sites, "name", "id", "region", "scenario") }},
		{"Scenarios", func(w io.Writer) error {
			for _, s := range inv.Scenarios {
				if _, err := fmt.Fprintln(w, s); err != nil {
					return err
				}
			}
			return nil
		}},
		{"Site settings", func(w io.Writer) error { return helpers.RenderRecord(w, inv.Settings) }},
		{"Devices", func(w io.Writer) error { return helpers.RenderTable(w, inv.Devices, deviceColumns...) }},
	}
	if inv.FirstDevice != nil {
		sections = append(sections, section{"First device", func(w io.Writer) error { return helpers.RenderRecord(w, inv.FirstDevice) }})
	}

	for _, s := range sections {
		if err := helpers.RenderSection(w, s.title, s.body); err != nil {
			return err
		}
	}
	return nil
}

// Status logs in, reports whether the controller considers the session valid, and logs out.
func Status(ctx context.Context, api interfaces.SessionChecker, creds config.CredentialProvider, w io.Writer) (bool, error) {
	username, password, err := creds.ProvideCredentials()
	if err != nil {
		return false, err
	}
	if _, err := api.Login(ctx, username, password); err != nil {
		return false, err
	}
	defer api.Logout(ctx)

	ok := api.IsLoggedIn(ctx)
	state := "not logged in"
	if ok {
		state = "logged in"
	}
	_, err = fmt.Fprintln(w, state)
	return ok, err
}
