package services

import "social-service/internal/models"

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	UserID int64
	Name   string
	Email  string
}

func ActorFromUser(u *models.User) Actor {
	return Actor{UserID: u.ID, Name: u.Name, Email: u.Email}
}

func (a Actor) Public() models.PublicUser {
	return models.PublicUser{ID: a.UserID, Name: a.Name, Email: a.Email}
}
