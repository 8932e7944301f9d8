package dto

import "classroom/internal/model"

// FileDTO is one embedded attachment.
type FileDTO struct {
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type"`
	Size         int64  `json:"size" validate:"gte=0"`
	Data         string `json:"data" validate:"required,startswith=data:"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	Title              string    `json:"title" validate:"required,notblank"`
	Description        string    `json:"description"`
	ImageURL           string    `json:"image_url"`
	ContentDescription string    `json:"content_description"`
	Files              []FileDTO `json:"files" validate:"omitempty,dive"`
	Progress           int       `json:"progress" validate:"gte=0,lte=100"`
	Tag                string    `json:"tag"`
}

// CourseUpdateDTO is used for incoming course update requests
type CourseUpdateDTO struct {
	Title              *string    `json:"title,omitempty" validate:"omitempty,notblank"`
	Description        *string    `json:"description,omitempty"`
	ImageURL           *string    `json:"image_url,omitempty"`
	ContentDescription *string    `json:"content_description,omitempty"`
	Files              *[]FileDTO `json:"files,omitempty" validate:"omitempty,dive"`
	Progress           *int       `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	Tag                *string    `json:"tag,omitempty"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ImageURL           string    `json:"image_url"`
	ContentDescription string    `json:"content_description"`
	Files              []FileDTO `json:"files"`
	Progress           int       `json:"progress"`
	Tag                string    `json:"tag"`
}

// MessageDTO is a plain acknowledgement.
type MessageDTO struct {
	Message string `json:"message"`
}

// RLSErrorDTO describes an access policy failure and how to fix it.
type RLSErrorDTO struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	SQLFix  string `json:"sql_fix"`
}

// ErrorResponseDTO wraps every JSON error body.
type ErrorResponseDTO struct {
	Detail any `json:"detail"`
}

func filesFromDTO(in []FileDTO) []model.FileAttachment {
	out := make([]model.FileAttachment, len(in))
	for i, f := range in {
		out[i] = model.FileAttachment{Name: f.Name, Type: f.Type, Size: f.Size, Data: f.Data, LastModified: f.LastModified}
	}
	return out
}

func filesToDTO(in []model.FileAttachment) []FileDTO {
	out := make([]FileDTO, len(in))
	for i, f := range in {
		out[i] = FileDTO{Name: f.Name, Type: f.Type, Size: f.Size, Data: f.Data, LastModified: f.LastModified}
	}
	return out
}

// ToModel builds the course to create.
func (d CourseCreateDTO) ToModel() *model.Course {
	return &model.Course{
		Title:              d.Title,
		Description:        d.Description,
		ImageURL:           d.ImageURL,
		ContentDescription: d.ContentDescription,
		Files:              filesFromDTO(d.Files),
		Progress:           d.Progress,
		Tag:                d.Tag,
	}
}

// ToPatch keeps only the fields present in the request.
func (d CourseUpdateDTO) ToPatch() model.CoursePatch {
	patch := model.CoursePatch{
		Title:              d.Title,
		Description:        d.Description,
		ImageURL:           d.ImageURL,
		ContentDescription: d.ContentDescription,
		Progress:           d.Progress,
		Tag:                d.Tag,
	}
	if d.Files != nil {
		files := filesFromDTO(*d.Files)
		patch.Files = &files
	}
	return patch
}

func NewCourseResponse(c model.Course) CourseResponseDTO {
	return CourseResponseDTO{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		ImageURL:           c.ImageURL,
		ContentDescription: c.ContentDescription,
		Files:              filesToDTO(c.Files),
		Progress:           c.Progress,
		Tag:                c.Tag,
	}
}
