// Package meta loads configuration documents through the abstract file
// system, so the protection configuration can live on a local file, an
// embedded FS or an object store without the callers caring which.
package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Service resolves and downloads documents relative to an optional base URL.
type Service struct {
	fs        afs.Service
	baseURL   string
	fsOptions []storage.Option
}

// New creates a meta service.  baseURL may be empty, in which case locations
// are used as-is.
func New(fs afs.Service, baseURL string, fsOptions ...storage.Option) *Service {
	if baseURL != "" {
		baseURL = url.Normalize(baseURL, file.Scheme)
	}
	return &Service{fs: fs, baseURL: baseURL, fsOptions: fsOptions}
}

// Load downloads the document at location (joined with the base URL when the
// location is relative) and expands ${env.KEY} expressions in its content.
func (s *Service) Load(ctx context.Context, location string) ([]byte, error) {
	URL := s.resolve(location)
	data, err := s.fs.DownloadWithURL(ctx, URL, s.fsOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", URL, err)
	}
	return []byte(expandEnvExpr(string(data))), nil
}

// Exists reports whether the document at location is present.
func (s *Service) Exists(ctx context.Context, location string) (bool, error) {
	return s.fs.Exists(ctx, s.resolve(location), s.fsOptions...)
}

func (s *Service) resolve(location string) string {
	if s.baseURL == "" || strings.Contains(location, "://") {
		return url.Normalize(location, file.Scheme)
	}
	return url.Join(s.baseURL, location)
}
