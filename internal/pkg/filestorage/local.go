package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/campushub/miniapp/internal/pkg/logger"
)

// DefaultURLPrefix is where the router serves the storage directory
const DefaultURLPrefix = "/uploads"

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath  string // root directory for stored files
	urlPrefix string // route the files are served under
	publicURL string // optional scheme and host prepended by URL
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
// Returned paths start with urlPrefix, or /uploads when it is empty.
// urlPrefix is a route path; a public host goes through WithPublicURL.
func NewLocalStorage(basePath, urlPrefix string) (*LocalStorage, error) {
	if strings.Contains(urlPrefix, "://") {
		return nil, fmt.Errorf("url prefix %q must be a path, not an absolute URL", urlPrefix)
	}
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}

	return &LocalStorage{
		basePath:  basePath,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

// WithPublicURL makes URL render stored paths under an absolute base such as
// https://campus.example.com. Stored paths stay relative to the route.
func (ls *LocalStorage) WithPublicURL(base string) (*LocalStorage, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		ls.publicURL = ""
		return ls, nil
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid public URL %q: want http(s)://host", base)
	}
	ls.publicURL = base
	return ls, nil
}

// BasePath returns the storage root
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// URL renders a stored path for clients. Paths outside the storage route,
// such as an external placeholder, are returned unchanged.
func (ls *LocalStorage) URL(publicPath string) string {
	if ls.publicURL == "" || !strings.HasPrefix(publicPath, ls.urlPrefix+"/") {
		return publicPath
	}
	return ls.publicURL + publicPath
}

// SaveFileWithPath saves a file to a specified subdirectory
func (ls *LocalStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", errors.New("no file uploaded")
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	publicPath, err := ls.SaveReader(file, subPath, strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if err != nil {
		return "", err
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", publicPath).Msg("File saved successfully")
	return publicPath, nil
}

// SaveReader writes r to a uniquely named file in subPath
func (ls *LocalStorage) SaveReader(r io.Reader, subPath, ext string) (string, error) {
	subPath = strings.Trim(filepath.ToSlash(subPath), "/")
	if strings.Contains(subPath, "..") {
		return "", fmt.Errorf("invalid storage subdirectory: %s", subPath)
	}

	fullDirPath := filepath.Join(ls.basePath, filepath.FromSlash(subPath))
	if err := os.MkdirAll(fullDirPath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", fullDirPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	uniqueFilename := uuid.New().String() + ext
	dstPath := filepath.Join(fullDirPath, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err = io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	return path.Join(ls.urlPrefix, subPath, uniqueFilename), nil
}

// DeleteFile removes a file from the storage filesystem.
// Returns nil if deletion is successful or if the file doesn't exist.
func (ls *LocalStorage) DeleteFile(publicPath string) error {
	physicalPath := ls.GetFullPath(publicPath)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", publicPath)
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// GetFullPath maps a public path such as /uploads/photos/x.jpg, or its
// rendered URL, to the filesystem. Paths outside the storage root resolve to "".
func (ls *LocalStorage) GetFullPath(publicPath string) string {
	publicPath = filepath.ToSlash(publicPath)
	if ls.publicURL != "" {
		publicPath = strings.TrimPrefix(publicPath, ls.publicURL)
	}
	if !strings.HasPrefix(publicPath, ls.urlPrefix+"/") {
		return ""
	}
	rel := strings.TrimPrefix(publicPath, ls.urlPrefix)
	rel = strings.Trim(path.Clean("/"+rel), "/")
	if rel == "" || rel == "." {
		return ""
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(rel))
}

// Exists reports whether the public path points at a stored file
func (ls *LocalStorage) Exists(publicPath string) bool {
	full := ls.GetFullPath(publicPath)
	if full == "" {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}
