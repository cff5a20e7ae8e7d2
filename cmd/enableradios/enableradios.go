package enableradios

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/filippocastelli/go-omada/pkg/config"
	"github.com/filippocastelli/go-omada/pkg/interfaces"
	"github.com/filippocastelli/go-omada/pkg/omada"
)

// Config holds enable-radios configuration
type Config struct {
	// Site is the site key; empty means the client's default site.
	Site string
	// Band defaults to 2.4GHz.
	Band    omada.Band
	Disable bool
	NoLEDs  bool
	// ContinueOnError keeps going after a failed device and reports every failure at the end.
	ContinueOnError bool
}

// Summary reports what a run did.
type Summary struct {
	RunID      string
	Devices    int
	RadioCalls int
	LEDCalls   int
	FailedMACs []string
}

// Run logs in, switches the radio (and LED) of every device of the site, and logs out.
// The first failed call ends the run unless ContinueOnError is set.
func Run(ctx context.Context, api interfaces.DeviceController, creds config.CredentialProvider, cfg Config) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := logr.FromContextOrDiscard(ctx).WithValues("run_id", summary.RunID)

	if cfg.Band == "" {
		cfg.Band = omada.Band2G
	}

	username, password, err := creds.ProvideCredentials()
	if err != nil {
		return summary, err
	}
	if _, err := api.Login(ctx, username, password); err != nil {
		return summary, err
	}
	defer api.Logout(ctx)

	devices, err := api.ListDevices(ctx, cfg.Site)
	if err != nil {
		return summary, err
	}
	log.V(1).Info("Listed devices", "site", cfg.Site, "count", len(devices))

	enabled := !cfg.Disable
	led := omada.LEDOn
	action := "enabling"
	if cfg.Disable {
		led = omada.LEDOff
		action = "disabling"
	}

	var errs []error
	for _, device := range devices {
		summary.Devices++

		log.Info(action+" radio", "name", device.Name, "mac", device.MAC, "band", cfg.Band)
		summary.RadioCalls++
		if _, err := api.SetRadio(ctx, device.MAC, cfg.Band, enabled, cfg.Site); err != nil {
			err = fmt.Errorf("device %s (%s): %w", device.Name, device.MAC, err)
			summary.FailedMACs = append(summary.FailedMACs, device.MAC)
			if !cfg.ContinueOnError {
				return summary, err
			}
			log.Error(err, "Radio update failed, continuing")
			errs = append(errs, err)
			continue
		}

		if cfg.NoLEDs {
			continue
		}
		log.Info(action+" LED", "name", device.Name, "mac", device.MAC)
		summary.LEDCalls++
		if _, err := api.SetLEDStatus(ctx, device.MAC, led, cfg.Site); err != nil {
			err = fmt.Errorf("device %s (%s): %w", device.Name, device.MAC, err)
			summary.FailedMACs = append(summary.FailedMACs, device.MAC)
			if !cfg.ContinueOnError {
				return summary, err
			}
			log.Error(err, "LED update failed, continuing")
			errs = append(errs, err)
		}
	}

	log.Info("Done", "devices", summary.Devices, "radio_calls", summary.RadioCalls,
		"led_calls", summary.LEDCalls, "failed", len(summary.FailedMACs))
	return summary, errors.Join(errs...)
}
