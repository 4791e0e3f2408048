package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account. Registration and login live outside this service;
// accounts are created by the seed tool or by an upstream identity service.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Avatar       string             `json:"avatar" bson:"avatar"`
	FirebaseUID  string             `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty"` // Link to Firebase User UID
	Date         time.Time          `json:"date" bson:"date"`
}

// UserCompact is the public projection of a user embedded in other responses.
type UserCompact struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Avatar string             `json:"avatar"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
