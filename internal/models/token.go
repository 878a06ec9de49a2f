package models

// Token is the opaque bearer credential owned by exactly one user.
type Token struct {
	Key    string `db:"key" json:"key"`
	UserID int64  `db:"user_id" json:"user_id"`
	Timestamps
}
