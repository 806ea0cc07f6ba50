package entity

// Player is one side of a match: a display name bound to a model identifier.
type Player struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Mark  string `json:"mark,omitempty"`
}

func NewPlayer(name, model, mark string) *Player {
	if name == "" {
		name = model
	}

	return &Player{
		Name:  name,
		Model: model,
		Mark:  mark,
	}
}
