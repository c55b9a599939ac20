package helpers

import "github.com/google/uuid"

// UUIDTokens issues random (version 4) UUID strings for session ids and reset tokens.
type UUIDTokens struct{}

func (UUIDTokens) NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
