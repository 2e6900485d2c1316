package types

import (
	"strings"
	"time"
	"unicode/utf8"
)

type PhotoCategory string

const (
	PhotoCategoryEvent       PhotoCategory = "event"
	PhotoCategoryProgram     PhotoCategory = "program"
	PhotoCategoryBeneficiary PhotoCategory = "beneficiary"
	PhotoCategoryFacility    PhotoCategory = "facility"
	PhotoCategoryOther       PhotoCategory = "other"
)

func (c PhotoCategory) Valid() bool {
	switch c {
	case PhotoCategoryEvent, PhotoCategoryProgram, PhotoCategoryBeneficiary, PhotoCategoryFacility, PhotoCategoryOther:
		return true
	}
	return false
}

const (
	MaxPhotoTitleLength       = 200
	MaxPhotoDescriptionLength = 1000
	MaxPhotosPerUpload        = 10
)

type Photo struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	ImageURL    string        `db:"image_url" json:"imageUrl"`
	StorageKey  string        `db:"storage_key" json:"-"`
	UploadedBy  string        `db:"uploaded_by" json:"uploadedBy,omitempty"`
	Category    PhotoCategory `db:"category" json:"category"`
	Tags        []string      `db:"tags" json:"tags"`
	IsActive    bool          `db:"is_active" json:"isActive"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// PhotoForm carries the non-file fields of an upload form.
type PhotoForm struct {
	Title       string   `form:"title"`
	Description string   `form:"description"`
	Category    string   `form:"category"`
	Tags        []string `form:"tags"`
}

func (f *PhotoForm) Normalize(defaultTitle string) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = strings.TrimSpace(f.Category)
	if f.Title == "" {
		f.Title = defaultTitle
	}
	if f.Category == "" {
		f.Category = string(PhotoCategoryOther)
	}

	tags := make([]string, 0, len(f.Tags))
	for _, tag := range f.Tags {
		for _, t := range strings.Split(tag, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	f.Tags = tags
}

func (f *PhotoForm) Validate() error {
	if f.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(f.Title) > MaxPhotoTitleLength {
		return NewValidationError("title", "title must be at most 200 characters")
	}
	if utf8.RuneCountInString(f.Description) > MaxPhotoDescriptionLength {
		return NewValidationError("description", "description must be at most 1000 characters")
	}
	if !PhotoCategory(f.Category).Valid() {
		return NewValidationError("category", "category must be one of event, program, beneficiary, facility, other")
	}
	return nil
}

type UpdatePhotoInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// Apply copies the set fields onto photo.
func (in *UpdatePhotoInput) Apply(photo *Photo) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return NewValidationError("title", "title is required")
		}
		if utf8.RuneCountInString(title) > MaxPhotoTitleLength {
			return NewValidationError("title", "title must be at most 200 characters")
		}
		photo.Title = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(description) > MaxPhotoDescriptionLength {
			return NewValidationError("description", "description must be at most 1000 characters")
		}
		photo.Description = description
	}
	if in.IsActive != nil {
		photo.IsActive = *in.IsActive
	}
	return nil
}
