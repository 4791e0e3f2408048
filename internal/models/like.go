package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Like records that a user liked a post. A user appears at most once in a
// post's likes.
type Like struct {
	User primitive.ObjectID `json:"user" bson:"user"`
}

// LikedBy reports whether userID already likes the post.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l.User == userID {
			return true
		}
	}
	return false
}

// AddLike prepends a like for userID. Callers check LikedBy first.
func (p *Post) AddLike(userID primitive.ObjectID) {
	p.Likes = append([]Like{{User: userID}}, p.Likes...)
}

// RemoveLike drops the like left by userID and reports whether one existed.
func (p *Post) RemoveLike(userID primitive.ObjectID) bool {
	for i, l := range p.Likes {
		if l.User == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return true
		}
	}
	return false
}
