package models

// User is the minimal profile the auth backend returns on verify/login.
type User struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	IsApproved bool   `json:"isApproved"`
}
