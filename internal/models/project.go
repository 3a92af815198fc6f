// Package models defines the persisted project types.
package models

import "time"

// ProjectMeta is the lightweight listing entry for a stored project spec.
type ProjectMeta struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a stored spec blob with its metadata.
type Project struct {
	ProjectMeta
	Spec []byte `json:"-"`
}
