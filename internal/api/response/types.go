package response

import (
	"github.com/Aryan9626/chess-app/internal/model"
	"github.com/Aryan9626/chess-app/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player Player `json:"player"`
	Token  string `json:"token"`
}

// AuthResponseFromToken creates an AuthResponse from a login token
func AuthResponseFromToken(t *auth.Token) AuthResponse {
	return AuthResponse{
		Player: PlayerFromModel(&t.Player),
		Token:  t.Value,
	}
}
