// Package storage persists project specs as opaque JSON blobs.
package storage

import (
	"fmt"
	"regexp"

	"github.com/starford/millwork/internal/models"
)

// Provider stores one spec blob per project id. A missing project is
// reported with an error wrapping os.ErrNotExist.
type Provider interface {
	// List returns metadata for every stored project, ordered by id.
	List() ([]models.ProjectMeta, error)
	// Read returns the stored blob for id.
	Read(id string) ([]byte, error)
	// Write atomically replaces the blob for id.
	Write(id string, data []byte) error
	// Delete removes the blob for id.
	Delete(id string) error
	Close() error
}

var idRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateID rejects ids that are empty, too long, or could escape a
// directory when used as a file name.
func ValidateID(id string) error {
	if !idRe.MatchString(id) {
		return fmt.Errorf("storage: invalid project id %q", id)
	}
	return nil
}
