package storage

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"manualstudio/internal/config"
	"manualstudio/internal/logging"
	"manualstudio/internal/services"
)

// localStore keeps artifacts in a directory tree mirroring the object key
// layout. Presigned URLs become file:// URLs, which is enough for tests and
// single-machine runs where the caller reads the path directly.
type localStore struct {
	root   string
	bucket string
	logger *slog.Logger
}

func newLocalStore(cfg *config.Config, logger *slog.Logger) (*localStore, error) {
	root := cfg.Storage.LocalDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "storage", "init", "create local root", err)
	}
	bucket := cfg.Storage.Bucket
	if bucket == "" {
		bucket = "local"
	}
	return &localStore{
		root:   root,
		bucket: bucket,
		logger: logging.NewComponentLogger(logger, "storage"),
	}, nil
}

func (s *localStore) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", services.Wrap(services.ErrStorage, "storage", "resolve", "key escapes root: "+key, nil)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *localStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	target, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "put", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "put", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", services.Wrap(services.ErrStorage, "storage", "put", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "put", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "put", key, err)
	}

	s.logger.Debug("object stored", logging.String("key", key))
	return s.URI(key), nil
}

func (s *localStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, services.Wrap(services.ErrStorage, "storage", "get", key, err)
	}
	return file, nil
}

func (s *localStore) Presign(ctx context.Context, key string, opts PresignOptions) (string, error) {
	target, err := s.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return "", ErrObjectNotFound
		}
		return "", services.Wrap(services.ErrStorage, "storage", "presign", key, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(), nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrStorage, "storage", "delete", key, err)
	}
	return nil
}

func (s *localStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := filepath.WalkDir(s.root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime().UTC().Truncate(time.Second),
		})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "storage", "list", prefix, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *localStore) Exists(ctx context.Context, key string) (bool, error) {
	target, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, services.Wrap(services.ErrStorage, "storage", "head", key, err)
	}
	return true, nil
}

func (s *localStore) URI(key string) string {
	return URIFor(s.bucket, key)
}
