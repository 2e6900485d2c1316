package server

import (
	"net/http"
	"strconv"

	"vridhashram/pkg/types"
)

type donationResponse struct {
	Message  string          `json:"message"`
	Donation *types.Donation `json:"donation"`
}

type submitDonationResponse struct {
	Message  string               `json:"message"`
	Donation *types.SubmitReceipt `json:"donation"`
}

func (s *Service) handleSubmitDonation(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r, 1); err != nil {
		s.writeError(w, r, err)
		return
	}

	var in types.SubmitDonationInput
	if err := decoder.Decode(&in, r.MultipartForm.Value); err != nil {
		s.writeError(w, r, formError(err))
		return
	}

	proof, closeProof, err := formFile(r, "paymentProof")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeProof()

	receipt, err := s.deps.Donations.Submit(r.Context(), in, proof)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, submitDonationResponse{
		Message:  "Donation submitted successfully. We will verify your payment and send you a receipt.",
		Donation: receipt,
	})
}

func (s *Service) handleListDonations(w http.ResponseWriter, r *http.Request) {
	var filter types.DonationFilter

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		st := types.DonationStatus(status)
		filter.Status = &st
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.ParseUint(limit, 10, 64)
		if err != nil {
			s.writeError(w, r, types.NewValidationError("limit", "limit must be a positive number"))
			return
		}
		filter.Limit = n
	}

	donations, err := s.deps.Donations.Donations(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if donations == nil {
		donations = []*types.Donation{}
	}

	s.writeJSON(w, http.StatusOK, donations)
}

func (s *Service) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	donation, err := s.deps.Donations.Donation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donation)
}

func (s *Service) handleVerifyDonation(w http.ResponseWriter, r *http.Request) {
	actor := principalFromContext(r.Context())

	donation, err := s.deps.Donations.Verify(r.Context(), r.PathValue("id"), actor.ActorID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := "Donation verified and certificate sent"
	if donation.Status == types.DonationStatusVerified {
		message = "Donation verified. Certificate email could not be sent and can be resent later"
	}

	s.writeJSON(w, http.StatusOK, donationResponse{Message: message, Donation: donation})
}

func (s *Service) handleRejectDonation(w http.ResponseWriter, r *http.Request) {
	var in types.RejectDonationInput
	if err := s.decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	actor := principalFromContext(r.Context())

	donation, err := s.deps.Donations.Reject(r.Context(), r.PathValue("id"), actor.ActorID(), in.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donationResponse{Message: "Donation rejected", Donation: donation})
}

func (s *Service) handleResendCertificate(w http.ResponseWriter, r *http.Request) {
	donation, err := s.deps.Donations.ResendCertificate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donationResponse{Message: "Certificate sent", Donation: donation})
}
