package types

// Principal is the authenticated caller, taken from a verified Cognito
// access token.
type Principal struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"groups"`
}

func (p *Principal) InGroup(group string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// ActorID identifies the principal in audit fields.
func (p *Principal) ActorID() string {
	if p.Email != "" {
		return p.Email
	}
	if p.Username != "" {
		return p.Username
	}
	return p.UserID
}
