// Package model contains the records shared by the stores, the services and
// the HTTP layer.
package model

import (
	"errors"
	"io/fs"
	"os"
)

// LocalFile is an upload spooled to local disk by the transport layer. The
// service that receives it owns the file and removes it once the request is
// done with it.
type LocalFile struct {
	// Name is the client-supplied file name, used in error messages only.
	Name        string
	Path        string
	Size        int64
	ContentType string
}

// Remove deletes the spooled file. A file that is already gone is not an
// error.
func (f LocalFile) Remove() error {
	if f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
