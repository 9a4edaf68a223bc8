package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/halcyonlabel/backend/internal/config"
	"go.uber.org/zap"
)

// ContractsPrefix is the only tree signed contract uploads may live in.
const ContractsPrefix = "private/uploads/contracts/"

const privatePrefix = "private/"

// ContractMirror fetches a signed upload from remote storage by its pointer key.
// Implementations return ErrStoredFileNotFound when the key does not exist.
type ContractMirror interface {
	FetchContract(ctx context.Context, key string) ([]byte, error)
}

// StorageRoot is one place private storage may be mounted. Roots that point
// at the private directory itself set StripPrivate so the pointer's leading
// "private/" is dropped before joining.
type StorageRoot struct {
	Dir          string
	StripPrivate bool
}

// StoredFile is an opened signed upload.
type StoredFile struct {
	Body   io.ReadCloser
	Size   int64
	Name   string
	Origin string
}

// StorageService resolves stored contract pointers to files on disk, falling
// back to the remote mirror when configured.
type StorageService struct {
	roots  []StorageRoot
	mirror ContractMirror
	log    *zap.Logger
}

// DefaultStorageRoots returns the probe order: working directory, deployment
// root, then the configured private storage root.
func DefaultStorageRoots(cfg *config.Config) []StorageRoot {
	var roots []StorageRoot
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, StorageRoot{Dir: wd})
	}
	if cfg.ContractsDeployRoot != "" {
		roots = append(roots, StorageRoot{Dir: cfg.ContractsDeployRoot})
	}
	if cfg.PrivateStorageRoot != "" {
		roots = append(roots, StorageRoot{Dir: cfg.PrivateStorageRoot, StripPrivate: true})
	}
	return roots
}

func NewStorageService(roots []StorageRoot, mirror ContractMirror, log *zap.Logger) *StorageService {
	return &StorageService{roots: roots, mirror: mirror, log: log}
}

// Roots returns the configured probe roots in order.
func (s *StorageService) Roots() []StorageRoot {
	return append([]StorageRoot(nil), s.roots...)
}

// NormalizePointer validates a stored pointer and returns its clean relative
// form. ok is false for anything outside the contracts tree.
func NormalizePointer(pointer string) (string, bool) {
	if pointer == "" || strings.ContainsRune(pointer, 0) {
		return "", false
	}
	p := strings.ReplaceAll(pointer, "\\", "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	p = strings.TrimLeft(p, "/")
	if !strings.HasPrefix(p, ContractsPrefix) {
		return "", false
	}
	p = path.Clean(p)
	if !strings.HasPrefix(p, ContractsPrefix) || len(p) == len(ContractsPrefix) {
		return "", false
	}
	return p, true
}

// ContractCandidates returns one absolute candidate per root for a valid
// pointer and none for an invalid one.
func (s *StorageService) ContractCandidates(pointer string) []string {
	rel, ok := NormalizePointer(pointer)
	if !ok {
		return nil
	}
	candidates := make([]string, 0, len(s.roots))
	for _, root := range s.roots {
		p := rel
		if root.StripPrivate {
			p = strings.TrimPrefix(p, privatePrefix)
		}
		candidates = append(candidates, filepath.Join(root.Dir, filepath.FromSlash(p)))
	}
	return candidates
}

// OpenContract opens the first existing candidate for pointer. The caller
// closes the returned body.
func (s *StorageService) OpenContract(ctx context.Context, pointer string) (*StoredFile, error) {
	rel, ok := NormalizePointer(pointer)
	if !ok {
		s.log.Warn("rejected contract pointer", zap.String("pointer", pointer))
		return nil, ErrStoredFileNotFound
	}

	for _, candidate := range s.ContractCandidates(rel) {
		info, err := os.Stat(candidate)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.log.Debug("contract candidate not readable", zap.String("path", candidate), zap.Error(err))
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		f, err := os.Open(candidate)
		if err != nil {
			return nil, fmt.Errorf("open stored contract: %w", err)
		}
		return &StoredFile{Body: f, Size: info.Size(), Name: path.Base(rel), Origin: candidate}, nil
	}

	if s.mirror == nil {
		return nil, ErrStoredFileNotFound
	}
	data, err := s.mirror.FetchContract(ctx, rel)
	if err != nil {
		if errors.Is(err, ErrStoredFileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch contract from mirror: %w", err)
	}
	return &StoredFile{
		Body:   io.NopCloser(bytes.NewReader(data)),
		Size:   int64(len(data)),
		Name:   path.Base(rel),
		Origin: "mirror:" + rel,
	}, nil
}
