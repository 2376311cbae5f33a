package service

import "strings"

// SignupRequest is the payload of POST /signup.
type SignupRequest struct {
	FirstName string `form:"firstName" json:"firstName" validate:"required,max=255"`
	Email     string `form:"email" json:"email" validate:"required,email,max=255"`
	Password  string `form:"password" json:"password" validate:"required,min=6,max=72,maxbytes=72"`
}

// Normalize trims surrounding whitespace. Email keeps its case; passwords are left untouched.
func (r SignupRequest) Normalize() SignupRequest {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// SigninRequest is the payload of POST /signIn.
type SigninRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email,max=255"`
	Password string `form:"password" json:"password" validate:"required,min=6,max=72,maxbytes=72"`
}

// Normalize trims surrounding whitespace from the email.
func (r SigninRequest) Normalize() SigninRequest {
	r.Email = strings.TrimSpace(r.Email)
	return r
}
