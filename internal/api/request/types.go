package request

// CreateGuestRequest creates an anonymous identity
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest creates a registered account
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest authenticates a registered account
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
