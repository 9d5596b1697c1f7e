package models

import "time"

// User is the persisted account record. Secrets never serialize.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the projection of User safe to return to clients.
type PublicUser struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"fullName"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public drops the password hash and refresh token.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		FullName:   u.FullName,
		Username:   u.Username,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// NewUser carries the fields needed to create a user. Password is raw; the
// store hashes it before it is written.
type NewUser struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     string
	CoverImage string
}
