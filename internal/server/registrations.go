package server

import (
	"net/http"

	"vridhashram/pkg/types"
)

type registrationResponse struct {
	Message      string              `json:"message"`
	Registration *types.Registration `json:"registration"`
}

func (s *Service) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	var in types.CreateRegistrationInput
	if err := s.decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	registration, err := in.ToRegistration()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Registrations.CreateRegistration(r.Context(), registration); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, registrationResponse{
		Message:      "Registration submitted successfully",
		Registration: registration,
	})
}

func (s *Service) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	registrations, err := s.deps.Registrations.Registrations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if registrations == nil {
		registrations = []*types.Registration{}
	}

	s.writeJSON(w, http.StatusOK, registrations)
}

func (s *Service) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	registration, err := s.deps.Registrations.Registration(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, registration)
}

func (s *Service) handleUpdateRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	var in types.UpdateRegistrationStatusInput
	if err := s.decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !in.Status.Valid() {
		s.writeError(w, r, types.NewValidationError("status", "status must be pending, approved or rejected"))
		return
	}

	id := r.PathValue("id")
	if err := s.deps.Registrations.UpdateRegistrationStatus(r.Context(), id, in.Status); err != nil {
		s.writeError(w, r, err)
		return
	}

	registration, err := s.deps.Registrations.Registration(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, registrationResponse{
		Message:      "Registration status updated",
		Registration: registration,
	})
}
