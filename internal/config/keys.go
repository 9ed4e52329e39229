package config

import (
	"net/url"
	"os"
)

// SettingSource represents where a setting comes from.
type SettingSource string

const (
	SourceEnv    SettingSource = "env"
	SourceConfig SettingSource = "config"
	SourceNone   SettingSource = "none"
)

// SettingStatus represents the status of a sensitive setting.
type SettingStatus struct {
	Name   string        `json:"name"`
	Source SettingSource `json:"source"`
	IsSet  bool          `json:"is_set"`
	Masked string        `json:"masked,omitempty"` // e.g., "http://***@10.0.0.1:3128"
}

// CheckProxies returns the status of the proxy settings. Proxy URLs may carry
// credentials, so only masked values are reported.
func CheckProxies(cfg *Config) []SettingStatus {
	return []SettingStatus{
		checkSetting("HTTP proxy", cfg.HTTP.Proxy.HTTP, EnvPrefix+"_HTTP_PROXY_HTTP"),
		checkSetting("HTTPS proxy", cfg.HTTP.Proxy.HTTPS, EnvPrefix+"_HTTP_PROXY_HTTPS"),
	}
}

// checkSetting checks if a setting is set and where it came from.
func checkSetting(name, value, envVar string) SettingStatus {
	status := SettingStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = SourceEnv
		} else {
			status.Source = SourceConfig
		}
		status.Masked = maskProxy(value)
	} else {
		status.Source = SourceNone
	}

	return status
}

// maskProxy hides the userinfo of a proxy URL.
func maskProxy(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User == nil {
		return u.String()
	}
	return u.Scheme + "://***@" + u.Host
}
