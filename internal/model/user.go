// Package model defines domain entities for the application.
package model

// User is a read-only directory record from the users source.
// Records are never mutated after they are fetched.
type User struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Company  Company `json:"company"`
	Address  Address `json:"address"`
}

// Company is the employer block of a User.
type Company struct {
	Name string `json:"name"`
}

// Address is the postal block of a User.
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}
