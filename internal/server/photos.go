package server

import (
	"net/http"

	"vridhashram/pkg/types"
)

type photoResponse struct {
	Message string       `json:"message"`
	Photo   *types.Photo `json:"photo"`
}

type photosResponse struct {
	Message string         `json:"message"`
	Photos  []*types.Photo `json:"photos"`
}

func (s *Service) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.deps.Gallery.Photos(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if photos == nil {
		photos = []*types.Photo{}
	}

	s.writeJSON(w, http.StatusOK, photos)
}

func (s *Service) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r, 1); err != nil {
		s.writeError(w, r, err)
		return
	}

	var form types.PhotoForm
	if err := decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		s.writeError(w, r, formError(err))
		return
	}

	file, closeFile, err := formFile(r, "photo")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	actor := principalFromContext(r.Context())

	photo, err := s.deps.Gallery.Upload(r.Context(), form, file, actor.ActorID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, photoResponse{Message: "Photo uploaded successfully", Photo: photo})
}

func (s *Service) handleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r, types.MaxPhotosPerUpload); err != nil {
		s.writeError(w, r, err)
		return
	}

	var form types.PhotoForm
	if err := decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		s.writeError(w, r, formError(err))
		return
	}

	files, closeFiles, err := formFiles(r, "photos")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFiles()

	actor := principalFromContext(r.Context())

	photos, err := s.deps.Gallery.UploadMany(r.Context(), form, files, actor.ActorID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, photosResponse{Message: "Photos uploaded successfully", Photos: photos})
}

func (s *Service) handleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var in types.UpdatePhotoInput
	if err := s.decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	photo, err := s.deps.Gallery.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, photoResponse{Message: "Photo updated successfully", Photo: photo})
}

func (s *Service) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Gallery.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Photo deleted successfully"})
}
