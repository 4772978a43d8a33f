package local

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/flextech/employees-backend/pkg/config"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
)

// extensionByMIME is the accepted avatar upload set. Anything else is
// rejected before touching disk.
var extensionByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Store writes avatar files under a local directory and hands back the
// public path that gets persisted on the user record.
type Store struct {
	dir     string
	baseURL string
}

// New prepares the upload directory.
func New(cfg config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.AvatarDir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create avatar directory")
	}
	return &Store{
		dir:     cfg.AvatarDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// SaveAvatar stores the uploaded image and returns its public path. The
// content type must be one of the accepted image types.
func (s *Store) SaveAvatar(ctx context.Context, contentType string, content io.Reader) (string, error) {
	ext, ok := extensionByMIME[normalizeContentType(contentType)]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeFileNotAccepted, "unsupported avatar content type")
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(s.dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create avatar file")
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(dst)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write avatar file")
	}

	return path.Join(s.baseURL, name), nil
}

// Remove deletes a previously stored avatar given its public path. Missing
// files are not an error so stale references can be cleaned up idempotently.
func (s *Store) Remove(ctx context.Context, publicPath string) error {
	name := path.Base(publicPath)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove avatar file")
	}
	return nil
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
