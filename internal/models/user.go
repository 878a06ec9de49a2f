package models

import "time"

type User struct {
	ID          int64      `db:"id" json:"id"`
	Email       string     `db:"email" json:"email"`
	Name        string     `db:"name" json:"name"`
	Password    string     `db:"password" json:"-"`
	IsStaff     bool       `db:"is_staff" json:"is_staff"`
	IsSuperuser bool       `db:"is_superuser" json:"is_superuser"`
	LastLogin   *time.Time `db:"last_login" json:"last_login"`
	Timestamps
}

// PublicUser is the profile other users are allowed to see.
type PublicUser struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
