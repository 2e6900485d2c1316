package server

import (
	"net/http"

	"vridhashram/pkg/types"
)

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type paymentResponse struct {
	Message string         `json:"message"`
	Payment *types.Payment `json:"payment"`
}

func (s *Service) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var in types.CreatePaymentIntentInput
	if err := s.decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	secret, err := s.deps.Payments.CreateIntent(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, paymentIntentResponse{ClientSecret: secret})
}

func (s *Service) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var in types.ConfirmPaymentInput
	if err := s.decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	payment, err := s.deps.Payments.Confirm(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, paymentResponse{Message: "Payment recorded successfully", Payment: payment})
}

func (s *Service) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.Payments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []*types.Payment{}
	}

	s.writeJSON(w, http.StatusOK, payments)
}

func (s *Service) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.deps.Payments.Payment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, payment)
}

func (s *Service) handlePaymentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Payments.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}
