package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileRequest is the body of a profile create or update. Format rules
// always apply; handle, status and skills are only mandatory when the
// profile does not exist yet (see CreateRules).
type ProfileRequest struct {
	Handle         string `json:"handle" validate:"omitempty,min=2,max=40"`
	Company        string `json:"company"`
	Website        string `json:"website" validate:"omitempty,url"`
	Location       string `json:"location"`
	Status         string `json:"status"`
	Skills         string `json:"skills"`
	Bio            string `json:"bio"`
	GitHubUsername string `json:"githubusername"`
	YouTube        string `json:"youtube" validate:"omitempty,url"`
	Twitter        string `json:"twitter" validate:"omitempty,url"`
	Facebook       string `json:"facebook" validate:"omitempty,url"`
	LinkedIn       string `json:"linkedin" validate:"omitempty,url"`
	Instagram      string `json:"instagram" validate:"omitempty,url"`
}

type profileCreateRules struct {
	Handle string `json:"handle" validate:"required"`
	Status string `json:"status" validate:"required"`
	Skills string `json:"skills" validate:"required"`
}

// CreateRules returns the value to validate before a first upsert.
func (r *ProfileRequest) CreateRules() any {
	return &profileCreateRules{Handle: r.Handle, Status: r.Status, Skills: r.Skills}
}

// ApplyTo merges the request into p. Empty values never clear a field.
func (r *ProfileRequest) ApplyTo(p *Profile) {
	setIfPresent(&p.Handle, r.Handle)
	setIfPresent(&p.Company, r.Company)
	setIfPresent(&p.Website, r.Website)
	setIfPresent(&p.Location, r.Location)
	setIfPresent(&p.Status, r.Status)
	setIfPresent(&p.Bio, r.Bio)
	setIfPresent(&p.GitHubUsername, r.GitHubUsername)
	if skills := SplitSkills(r.Skills); len(skills) > 0 {
		p.Skills = skills
	}
	setIfPresent(&p.Social.YouTube, r.YouTube)
	setIfPresent(&p.Social.Twitter, r.Twitter)
	setIfPresent(&p.Social.Facebook, r.Facebook)
	setIfPresent(&p.Social.LinkedIn, r.LinkedIn)
	setIfPresent(&p.Social.Instagram, r.Instagram)
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

type ExperienceRequest struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required,datetime=2006-01-02"`
	To          string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

func (r *ExperienceRequest) ToExperience() (Experience, error) {
	from, to, err := parsePeriod(r.From, r.To, r.Current)
	if err != nil {
		return Experience{}, err
	}
	return Experience{
		ID:          primitive.NewObjectID(),
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		From:        from,
		To:          to,
		Current:     r.Current,
		Description: r.Description,
	}, nil
}

type EducationRequest struct {
	School       string `json:"school" validate:"required"`
	Degree       string `json:"degree" validate:"required"`
	FieldOfStudy string `json:"fieldofstudy" validate:"required"`
	From         string `json:"from" validate:"required,datetime=2006-01-02"`
	To           string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func (r *EducationRequest) ToEducation() (Education, error) {
	from, to, err := parsePeriod(r.From, r.To, r.Current)
	if err != nil {
		return Education{}, err
	}
	return Education{
		ID:           primitive.NewObjectID(),
		School:       r.School,
		Degree:       r.Degree,
		FieldOfStudy: r.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      r.Current,
		Description:  r.Description,
	}, nil
}

// parsePeriod parses the from/to dates. An ongoing period has no end, so to
// is dropped when current is set.
func parsePeriod(fromRaw, toRaw string, current bool) (time.Time, *time.Time, error) {
	from, err := time.Parse(DateLayout, fromRaw)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("parse from date: %w", err)
	}
	if toRaw == "" || current {
		return from, nil, nil
	}
	to, err := time.Parse(DateLayout, toRaw)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("parse to date: %w", err)
	}
	return from, &to, nil
}
