package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Output handles formatting results for display
type Output struct {
	format string
}

// NewOutput creates an Output for the given format
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print writes the value in the configured format
func (o *Output) Print(v any) {
	if o.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}

	switch val := v.(type) {
	case AuthResult:
		fmt.Printf("player: %s (%s)\n", val.Player.DisplayName, val.Player.ID)
		fmt.Printf("token:  %s\n", val.Token)
	case PlayerResult:
		fmt.Printf("player: %s (%s)\n", val.DisplayName, val.ID)
	default:
		fmt.Printf("%+v\n", v)
	}
}
