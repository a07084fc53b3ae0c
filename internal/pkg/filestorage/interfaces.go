package filestorage

import (
	"io"
	"mime/multipart"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFileWithPath stores an upload under a subdirectory and returns its public path
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// SaveReader stores raw content under a subdirectory with the given extension
	SaveReader(r io.Reader, subPath, ext string) (string, error)

	// DeleteFile removes a file by its public path
	DeleteFile(publicPath string) error

	// GetFullPath returns the filesystem path for a public path
	GetFullPath(publicPath string) string

	// URL renders a stored public path for clients
	URL(publicPath string) string
}
