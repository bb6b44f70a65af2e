// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

package transfer

import (
	"errors"
	"os"
	"path"
	"path/filepath"
)

var (
	ErrBadName = errors.New("dhxfer/transfer: unusable destination name")
)

// A Store persists a verified file under the name the sender chose.
type Store interface {
	WriteFile(name string, data []byte) error
}

// DirStore writes files beneath Root.  Names are interpreted as slash-separated paths relative to Root and
// cannot climb out of it.  A file appears under its final name only once it is completely written.
type DirStore struct {
	Root string
	Perm os.FileMode
}

func (ds DirStore) Path(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", ErrBadName
	}
	return filepath.Join(ds.Root, filepath.FromSlash(clean[1:])), nil
}

func (ds DirStore) WriteFile(name string, data []byte) (err error) {
	dest, err := ds.Path(name)
	if err != nil {
		return err
	}

	perm := ds.Perm
	if perm == 0 {
		perm = 0644
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".dhxfer-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
