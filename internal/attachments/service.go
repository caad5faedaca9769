package attachments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/store"
)

// Service implements the two attachment intake paths from spec §4.9.
type Service struct {
	store         store.Uploads
	storage       Storage
	signer        *Signer
	maxFileBytes  int64
	storageDriver domain.StorageDriver
}

func NewService(st store.Uploads, storage Storage, signer *Signer, maxFileBytes int64, driver domain.StorageDriver) *Service {
	return &Service{store: st, storage: storage, signer: signer, maxFileBytes: maxFileBytes, storageDriver: driver}
}

// DirectUpload stores a multipart-uploaded file, records its SHA-256 on
// the Upload row, and returns that row. Every call stores a new object and
// creates a new row; an earlier upload with the same (ownerId, sha256) is
// not looked up or reused.
func (s *Service) DirectUpload(ctx context.Context, ownerID int64, originalName, mimeType string, size int64, body io.Reader) (*domain.Upload, error) {
	if size > s.maxFileBytes {
		return nil, apperror.Validation("file exceeds MAX_FILE_SIZE_BYTES")
	}
	if ExtensionRejected(filepath.Ext(originalName)) {
		return nil, apperror.Validation("file type not allowed")
	}

	hasher := sha256.New()
	tee := io.TeeReader(body, hasher)

	key := fmt.Sprintf("uploads/%d/%s%s", ownerID, uuid.NewString(), filepath.Ext(originalName))
	if err := s.storage.Put(ctx, key, tee, mimeType); err != nil {
		return nil, apperror.Internal(err)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	up := &domain.Upload{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Key:          key,
		SHA256:       &sum,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
		Driver:       s.storageDriver,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.UploadCreate(ctx, up); err != nil {
		return nil, apperror.Internal(err)
	}
	return up, nil
}

// IntentResult is the response of the presigned two-step intake's first
// step.
type IntentResult struct {
	UploadURL string
	Key       string
}

// Intent mints a presigned PUT URL and canonical storage key.
func (s *Service) Intent(ctx context.Context, ownerID int64, originalName, mimeType string) (*IntentResult, error) {
	key := fmt.Sprintf("uploads/%d/%s%s", ownerID, uuid.NewString(), filepath.Ext(originalName))
	if ExtensionRejected(filepath.Ext(originalName)) {
		return nil, apperror.Validation("file type not allowed")
	}
	url, err := s.storage.PresignPut(ctx, key, 15*time.Minute)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &IntentResult{UploadURL: url, Key: key}, nil
}

// Complete creates the Upload row after the client has PUT the object
// directly to storage.
func (s *Service) Complete(ctx context.Context, ownerID int64, key, originalName, mimeType string, size int64) (*domain.Upload, error) {
	up := &domain.Upload{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Key:          key,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
		Driver:       s.storageDriver,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.UploadCreate(ctx, up); err != nil {
		return nil, apperror.Internal(err)
	}
	return up, nil
}

// ResolveURL returns the read-time URL for an attachment's stored
// location: signed if it is an internal key, passed through unchanged if
// already absolute (spec §4.9).
func (s *Service) ResolveURL(rawURLOrKey string, ownerID int64) string {
	if IsExternal(rawURLOrKey) {
		return rawURLOrKey
	}
	return s.signer.Sign(rawURLOrKey, ownerID)
}
