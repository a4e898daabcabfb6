package domain

import "fmt"

// UserContext identifies the user a request is acting on behalf of.
// It is resolved by the authentication middleware and passed explicitly
// into every operation; nothing in the core reads it from ambient state.
type UserContext struct {
	ID    int64
	Email string
}

// StorageID is the key carts and orders are stored under.
func (u UserContext) StorageID() string {
	return fmt.Sprintf("%d", u.ID)
}
