package server

import (
	"net/http"
	"time"

	"vridhashram/pkg/types"
)

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
	Storage     bool      `json:"storageConfigured"`
	Mail        bool      `json:"mailConfigured"`
	Stripe      bool      `json:"stripeConfigured"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC(),
		Environment: s.config.Environment,
		Database:    "connected",
		Storage:     s.deps.StorageConfigured,
		Mail:        s.deps.MailConfigured,
		Stripe:      s.deps.StripeConfigured,
	}

	status := http.StatusOK
	if s.deps.Database == nil {
		resp.Database = "not configured"
	} else if err := s.deps.Database.Ping(r.Context()); err != nil {
		s.logger.WithError(err).Warn("health check database ping failed")
		resp.Status = "DEGRADED"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, resp)
}

func (s *Service) handleNGOInfo(w http.ResponseWriter, r *http.Request) {
	info := types.OrgInfo{
		Name:     s.config.OrgName,
		Mission:  s.config.OrgMission,
		Founded:  s.config.OrgFounded,
		Programs: []*types.Program{},
		Contact: types.OrgContact{
			Address: s.config.OrgAddress,
			Phone:   s.config.OrgPhone,
			Email:   s.config.OrgEmail,
			Website: s.config.OrgWebsite,
		},
	}

	if s.deps.Programs != nil {
		programs, err := s.deps.Programs.ActivePrograms(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if programs != nil {
			info.Programs = programs
		}
	}

	s.writeJSON(w, http.StatusOK, info)
}
