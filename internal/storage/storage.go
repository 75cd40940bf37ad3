// Package storage provides byte-oriented key/value backends for the project store.
//
// Keys are slash-separated paths such as "projects/<id>.json". Every backend
// returns ErrNotFound for a missing key, lists keys in lexical order, and treats
// deleting a missing key as success.
package storage

import (
	"errors"
	"strings"
)

// ErrNotFound reports a key that does not exist in the backend.
var ErrNotFound = errors.New("storage: key not found")

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return errors.New("storage: invalid key " + key)
	}
	return nil
}
