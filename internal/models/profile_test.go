package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSplitSkills(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"Go,Docker", []string{"Go", "Docker"}},
		{" Go , Docker ,, k8s ", []string{"Go", "Docker", "k8s"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitSkills(tt.raw), "raw=%q", tt.raw)
	}
}

func TestProfileRequest_ApplyToMergesPresentFields(t *testing.T) {
	p := &Profile{}
	(&ProfileRequest{
		Handle:  "johndoe",
		Status:  "Developer",
		Skills:  "Go, Docker",
		Twitter: "https://twitter.com/johndoe",
	}).ApplyTo(p)

	(&ProfileRequest{Bio: "new bio"}).ApplyTo(p)

	assert.Equal(t, "johndoe", p.Handle)
	assert.Equal(t, "Developer", p.Status)
	assert.Equal(t, []string{"Go", "Docker"}, p.Skills)
	assert.Equal(t, "https://twitter.com/johndoe", p.Social.Twitter)
	assert.Equal(t, "new bio", p.Bio)
}

func TestExperienceRequest_ToExperience(t *testing.T) {
	exp, err := (&ExperienceRequest{
		Title:   "Engineer",
		Company: "Acme",
		From:    "2019-06-01",
		To:      "2021-01-31",
	}).ToExperience()
	require.NoError(t, err)

	assert.False(t, exp.ID.IsZero())
	assert.Equal(t, time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), exp.From)
	require.NotNil(t, exp.To)
	assert.Equal(t, 2021, exp.To.Year())

	_, err = (&ExperienceRequest{From: "June 2019"}).ToExperience()
	assert.Error(t, err)
}

func TestEducationRequest_OpenEnded(t *testing.T) {
	edu, err := (&EducationRequest{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2010-09-01", Current: true}).ToEducation()
	require.NoError(t, err)
	assert.Nil(t, edu.To)
	assert.True(t, edu.Current)
}

func TestPeriod_CurrentDropsEndDate(t *testing.T) {
	exp, err := (&ExperienceRequest{Title: "Engineer", Company: "Acme", From: "2019-01-01", To: "2020-01-01", Current: true}).ToExperience()
	require.NoError(t, err)
	assert.Nil(t, exp.To)
	assert.True(t, exp.Current)

	edu, err := (&EducationRequest{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2010-09-01", To: "2014-06-01", Current: true}).ToEducation()
	require.NoError(t, err)
	assert.Nil(t, edu.To)

	closed, err := (&ExperienceRequest{Title: "Engineer", Company: "Acme", From: "2019-01-01", To: "2020-01-01"}).ToExperience()
	require.NoError(t, err)
	require.NotNil(t, closed.To)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *closed.To)
}

func TestProfile_RemoveEntries(t *testing.T) {
	p := &Profile{}
	e1 := Experience{ID: primitive.NewObjectID(), Title: "old"}
	e2 := Experience{ID: primitive.NewObjectID(), Title: "new"}
	p.AddExperience(e1)
	p.AddExperience(e2)

	assert.Equal(t, "new", p.Experience[0].Title)
	assert.True(t, p.RemoveExperience(e1.ID))
	assert.False(t, p.RemoveExperience(primitive.NewObjectID()))
	assert.Len(t, p.Experience, 1)

	edu := Education{ID: primitive.NewObjectID()}
	p.AddEducation(edu)
	assert.True(t, p.RemoveEducation(edu.ID))
	assert.Empty(t, p.Education)
}
