package omada

import (
	"fmt"
	"net/url"
)

const (
	apiPath = "/api/v2"

	loginPath       = "/login"
	logoutPath      = "/logout"
	loginStatusPath = "/loginStatus"
	usersPath       = "/users"
	sitesPath       = "/sites"
	scenariosPath   = "/scenarios"

	// DefaultSite is the site key used when neither the configuration nor the caller names one.
	DefaultSite = "Default"

	defaultUserAgent = "go-omada/0.1.0"

	CsrfHeader        = "Csrf-Token"
	UserAgentHeader   = "User-Agent"
	AcceptHeader      = "Accept"
	ContentTypeHeader = "Content-Type"

	tokenParam     = "token"
	timestampParam = "_"
)

func siteSettingPath(siteKey string) string {
	return fmt.Sprintf("/sites/%s/setting", url.PathEscape(siteKey))
}

func siteDevicesPath(siteKey string) string {
	return fmt.Sprintf("/sites/%s/devices", url.PathEscape(siteKey))
}

func eapPath(siteKey, mac string) string {
	return fmt.Sprintf("/sites/%s/eaps/%s", url.PathEscape(siteKey), url.PathEscape(mac))
}
