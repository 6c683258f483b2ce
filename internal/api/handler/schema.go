package handler

import "time"

// messageResponse is the success envelope.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// errorResponse mirrors the envelope rendered by the global error handler.
// Only referenced by swagger annotations.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"`
}

type assignRoleRequest struct {
	// any: the type check happens in the service so non-string values are
	// reported as missing parameters.
	UID  any `json:"uid"  swaggertype:"string"`
	Role any `json:"role" swaggertype:"string" enums:"Admin,TeamAdmin,Master,Executive"`
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	UID       string    `json:"uid"`
	Role      string    `json:"role"`
	Redirect  string    `json:"redirect"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type profileResponse struct {
	UID          string     `json:"uid"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

type registerResponse struct {
	Success bool            `json:"success"`
	User    profileResponse `json:"user"`
}

type userListResponse struct {
	Success bool              `json:"success"`
	Users   []profileResponse `json:"users"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type userResponse struct {
	Success bool            `json:"success"`
	User    profileResponse `json:"user"`
}

type pageResponse struct {
	Success  bool   `json:"success"`
	Surface  string `json:"surface"`
	Role     string `json:"role"`
	Degraded bool   `json:"degraded"`
}
