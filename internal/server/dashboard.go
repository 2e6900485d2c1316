package server

import (
	"net/http"

	"vridhashram/pkg/types"
)

const dashboardRecentLimit = 5

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dashboard types.Dashboard

	registrations, err := s.deps.Registrations.CountByStatus(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dashboard.Registrations = *registrations

	payments, err := s.deps.PaymentStats.CompletedTotals(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dashboard.Payments = *payments

	donations, err := s.deps.DonationStats.CountByStatus(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dashboard.Donations = *donations

	dashboard.Recent.Registrations, err = s.deps.Registrations.RecentRegistrations(ctx, dashboardRecentLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dashboard.Recent.Payments, err = s.deps.PaymentStats.RecentPayments(ctx, dashboardRecentLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dashboard.Trends.Registrations, err = s.deps.Registrations.MonthlyCounts(ctx, 12)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dashboard.Trends.Payments, err = s.deps.PaymentStats.MonthlyTotals(ctx, 12)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, dashboard)
}
