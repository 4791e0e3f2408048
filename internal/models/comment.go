package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in a Post
type Comment struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	User   primitive.ObjectID `json:"user" bson:"user"`
	Text   string             `json:"text" bson:"text"`
	Name   string             `json:"name" bson:"name"`
	Avatar string             `json:"avatar" bson:"avatar"`
	Date   time.Time          `json:"date" bson:"date"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Text   string `json:"text" validate:"required,max=1000"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// NewComment builds a comment authored by userID with a fresh id.
func (r *CreateCommentRequest) NewComment(userID primitive.ObjectID, now time.Time) Comment {
	return Comment{
		ID:     primitive.NewObjectID(),
		User:   userID,
		Text:   r.Text,
		Name:   r.Name,
		Avatar: r.Avatar,
		Date:   now,
	}
}

// AddComment prepends c to the post's comments.
func (p *Post) AddComment(c Comment) {
	p.Comments = append([]Comment{c}, p.Comments...)
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (p *Post) CommentIndex(id primitive.ObjectID) int {
	for i, c := range p.Comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// RemoveCommentAt deletes the comment at index i.
func (p *Post) RemoveCommentAt(i int) {
	p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
}
