// Package auth implements account registration and login: payload validation,
// password hashing, token issuance and the two flows that orchestrate them, plus
// the HTTP handlers that expose the flows.
//
// This file defines the request and response bodies. The `validate` tags are read
// by the Validator and the `label` tags name the field in validation messages.
package auth

// RegisterRequest is the body of POST /api/users.
type RegisterRequest struct {
	UserName string `json:"userName" validate:"required,min=3,max=255" label:"Username" example:"alice"`
	Email    string `json:"email" validate:"required,min=3,max=255,email" label:"email" example:"alice@x.com"`
	Password string `json:"password" validate:"required,password" label:"Password" example:"Abcd1234!"`
}

// LoginRequest is the body of POST /api/auth. The username is accepted but not
// required, and the password is only checked for presence: complexity rules apply
// to new passwords, not to login attempts.
//
// UserName is a pointer so an absent key and an explicit "" can be told apart;
// only the latter is rejected.
type LoginRequest struct {
	UserName *string `json:"userName,omitempty" validate:"omitnil,min=3,max=255" label:"Username" example:"alice"`
	Email    string  `json:"email" validate:"required,min=3,max=255,email" label:"email" example:"alice@x.com"`
	Password string  `json:"password" validate:"required,max=255" label:"Password" example:"Abcd1234!"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"User registered successfully"`
}

// LoginResponse carries the issued token in `data`.
type LoginResponse struct {
	Data    string `json:"data" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Message string `json:"message" example:"Login successful"`
}

// Acknowledgement texts.
const (
	MsgRegistered  = "User registered successfully"
	MsgLoggedIn    = "Login successful"
	MsgInvalidBody = "invalid request body"
)
