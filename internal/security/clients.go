package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid client credentials")

// Client is an API client allowed to exchange its secret for an access token.
type Client struct {
	ID         string
	SecretHash string
	Admin      bool
}

// ClientRegistry verifies client credentials against bcrypt hashes.
type ClientRegistry struct {
	clients map[string]Client
}

func NewClientRegistry(clients []Client) *ClientRegistry {
	r := &ClientRegistry{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.ID] = c
	}
	return r
}

// Authenticate returns the roles of the client when secret matches.
func (r *ClientRegistry) Authenticate(clientID, secret string) ([]string, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	roles := []string{RoleClient}
	if c.Admin {
		roles = append(roles, RoleAdmin)
	}
	return roles, nil
}

// HashSecret produces the value to put in a client's secret_hash.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
