package interfaces

import (
	"context"
	"encoding/json"

	"github.com/filippocastelli/go-omada/pkg/omada"
)

// DeviceController defines the controller operations the radio batch needs
type DeviceController interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context)
	ListDevices(ctx context.Context, siteKey string) ([]omada.Device, error)
	SetRadio(ctx context.Context, mac string, band omada.Band, enabled bool, siteKey string) (json.RawMessage, error)
	SetLEDStatus(ctx context.Context, mac string, status omada.LEDStatus, siteKey string) (json.RawMessage, error)
}

// InventoryReader defines the read-only controller operations used by the inventory dump
type InventoryReader interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context)
	ListAdmins(ctx context.Context) ([]omada.Admin, error)
	ListSites(ctx context.Context) ([]omada.Site, error)
	ListScenarios(ctx context.Context) ([]string, error)
	ListSiteSettings(ctx context.Context, siteKey string) (omada.Record, error)
	ListDevices(ctx context.Context, siteKey string) ([]omada.Device, error)
	GetDevice(ctx context.Context, mac, siteKey string) (*omada.Device, error)
}

// SessionChecker defines the operations the status command needs
type SessionChecker interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context)
	IsLoggedIn(ctx context.Context) bool
}

var (
	_ DeviceController = (*omada.Client)(nil)
	_ InventoryReader  = (*omada.Client)(nil)
	_ SessionChecker   = (*omada.Client)(nil)
)
