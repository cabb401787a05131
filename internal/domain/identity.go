package domain

// Identity is the signed-in customer as handed over by the session layer.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}
