package dto

import "classroom/internal/dashboard"

// ModalsDTO mirrors the five dialog flags.
type ModalsDTO struct {
	Admin       bool `json:"admin"`
	Logout      bool `json:"logout"`
	Create      bool `json:"create"`
	Edit        bool `json:"edit"`
	Remediation bool `json:"remediation"`
}

// FileSummaryDTO lists a draft file without its payload.
type FileSummaryDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type DraftDTO struct {
	CourseID           string           `json:"course_id"`
	ContentDescription string           `json:"content_description"`
	Files              []FileSummaryDTO `json:"files"`
	Dirty              bool             `json:"dirty"`
}

type NotificationDTO struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StateResponseDTO is the JSON snapshot of one session's dashboard.
type StateResponseDTO struct {
	Courses           []CourseResponseDTO `json:"courses"`
	Loading           bool                `json:"loading"`
	SelectedID        string              `json:"selected_id,omitempty"`
	IsAdmin           bool                `json:"is_admin"`
	Modals            ModalsDTO           `json:"modals"`
	Creating          bool                `json:"creating"`
	Editing           bool                `json:"editing"`
	Saving            bool                `json:"saving"`
	EditingID         string              `json:"editing_id,omitempty"`
	Draft             *DraftDTO           `json:"draft,omitempty"`
	RemediationScript string              `json:"remediation_script"`
	Notifications     []NotificationDTO   `json:"notifications"`
}

func NewStateResponse(s dashboard.State) StateResponseDTO {
	resp := StateResponseDTO{
		Courses:           make([]CourseResponseDTO, 0, len(s.Courses)),
		Loading:           s.Loading,
		IsAdmin:           s.IsAdmin,
		Modals:            ModalsDTO(s.Modals),
		Creating:          s.Creating,
		Editing:           s.Editing,
		Saving:            s.Saving,
		RemediationScript: s.Remediation.Script,
		Notifications:     make([]NotificationDTO, 0, len(s.Notifications)),
	}
	for _, c := range s.Courses {
		resp.Courses = append(resp.Courses, NewCourseResponse(c))
	}
	if s.Selected != nil {
		resp.SelectedID = s.Selected.ID
	}
	if s.EditingCourse != nil {
		resp.EditingID = s.EditingCourse.ID
	}
	if s.Draft != nil {
		d := &DraftDTO{
			CourseID:           s.Draft.CourseID,
			ContentDescription: s.Draft.ContentDescription,
			Files:              make([]FileSummaryDTO, 0, len(s.Draft.Files)),
			Dirty:              s.Draft.Dirty,
		}
		for _, f := range s.Draft.Files {
			d.Files = append(d.Files, FileSummaryDTO{Name: f.Name, Type: f.Type, Size: f.Size})
		}
		resp.Draft = d
	}
	for _, n := range s.Notifications {
		resp.Notifications = append(resp.Notifications, NotificationDTO{ID: n.ID, Kind: string(n.Kind), Message: n.Message})
	}
	return resp
}
