package storage

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// AttachmentRemover deletes a stored attachment by its public URL. Recall
// is the only consumer.
type AttachmentRemover interface {
	Remove(url string) error
}

// DiskStore maps public upload URLs onto files under a local directory.
type DiskStore struct {
	Directory  string
	PublicPath string
}

func NewDiskStore(directory, publicPath string) *DiskStore {
	return &DiskStore{Directory: directory, PublicPath: publicPath}
}

// Remove deletes the file backing the URL. A file that is already gone is
// not an error.
func (s *DiskStore) Remove(url string) error {
	name := strings.TrimPrefix(url, s.PublicPath)
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return nil
	}

	// Reject anything trying to escape the uploads directory.
	path := filepath.Join(s.Directory, filepath.Clean("/"+name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	log.Printf("removed attachment %s", path)
	return nil
}
