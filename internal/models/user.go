package models

// CompPlayerRecord is a comp player account as returned by the comp player source.
type CompPlayerRecord struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Rank           string `json:"rank"`
	Level          int    `json:"level"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}
