package api

import (
	"net/http"

	"github.com/seenimoa/mfkit/internal/config"
)

// ConfigResponse is the JSON body of GET /api/v1/config. Proxy URLs are
// reported masked only.
type ConfigResponse struct {
	HTTPTimeout   string                 `json:"http_timeout"`
	ScrapeTimeout string                 `json:"scrape_timeout"`
	RateLimit     int                    `json:"rate_limit"`
	UserAgent     string                 `json:"user_agent"`
	Workers       int                    `json:"workers"`
	ConstantsFile string                 `json:"constants_file"`
	ReportDate    string                 `json:"report_date"`
	Groups        []string               `json:"groups"`
	AmcCount      int                    `json:"amc_count"`
	Proxies       []config.SettingStatus `json:"proxies"`
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusServiceUnavailable, "no configuration loaded")
		return
	}

	resp := ConfigResponse{
		HTTPTimeout:   s.cfg.HTTP.Timeout.String(),
		ScrapeTimeout: s.cfg.HTTP.ScrapeTimeout.String(),
		RateLimit:     s.cfg.HTTP.RateLimit,
		UserAgent:     s.cfg.HTTP.UserAgent,
		Workers:       s.cfg.Fetch.Workers,
		ConstantsFile: s.cfg.Constants.Path,
		Proxies:       config.CheckProxies(s.cfg),
	}
	if resp.ConstantsFile == "" {
		resp.ConstantsFile = "embedded"
	}
	if s.svc != nil {
		t := s.svc.Table()
		if resp.UserAgent == "" {
			resp.UserAgent = t.UserAgent
		}
		resp.Groups = t.GroupNames()
		resp.AmcCount = len(t.AMC)
		resp.ReportDate = s.svc.ReportDate()
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}
