package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a short text post stored in MongoDB. Likes and comments are
// embedded and ordered newest first.
type Post struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User     primitive.ObjectID `json:"user" bson:"user"`
	Text     string             `json:"text" bson:"text"`
	Name     string             `json:"name" bson:"name"`
	Avatar   string             `json:"avatar" bson:"avatar"`
	Likes    []Like             `json:"likes" bson:"likes"`
	Comments []Comment          `json:"comments" bson:"comments"`
	Date     time.Time          `json:"date" bson:"date"`
	Version  int64              `json:"-" bson:"version"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Text   string `json:"text" validate:"required,max=1000"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Normalize replaces nil collections so they serialize as [] instead of null.
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// Clone returns a copy that shares no slices with p.
func (p *Post) Clone() *Post {
	cp := *p
	cp.Likes = append([]Like(nil), p.Likes...)
	cp.Comments = append([]Comment(nil), p.Comments...)
	cp.Normalize()
	return &cp
}
