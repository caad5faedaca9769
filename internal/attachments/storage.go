package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/backboneproto/corechat/internal/domain"
)

// Storage is the blob backend contract. Two concrete drivers satisfy it:
// local disk and S3, selected at startup by STORAGE_DRIVER.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
	PublicURL(key string) string
}

// LocalDriver writes attachments under a base directory, serving as the
// default driver (STORAGE_DRIVER=local) for development and small
// deployments.
type LocalDriver struct {
	baseDir       string
	publicBaseURL string
}

func NewLocalDriver(baseDir, publicBaseURL string) *LocalDriver {
	return &LocalDriver{baseDir: baseDir, publicBaseURL: publicBaseURL}
}

func (d *LocalDriver) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	path := filepath.Join(d.baseDir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("attachments: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("attachments: create: %w", err)
	}
	defer f.Close()
	_, err = io.Copy(f, body)
	return err
}

// PresignPut has no meaning for local disk; direct multipart is the only
// intake path this driver supports. It always returns an error, which
// Service.Intent reports as an internal error; Service.Complete does not
// check the driver.
func (d *LocalDriver) PresignPut(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", fmt.Errorf("attachments: presigned upload not supported by local driver")
}

func (d *LocalDriver) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", trimSlash(d.publicBaseURL), key)
}

// S3Driver stores attachments in an S3-compatible bucket, grounded on the
// teacher's go.mod dependency on aws/aws-sdk-go.
type S3Driver struct {
	bucket        string
	client        *s3.S3
	uploader      *s3manager.Uploader
	publicBaseURL string
}

func NewS3Driver(region, bucket, accessKey, secretKey, publicBaseURL string) (*S3Driver, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("attachments: s3 session: %w", err)
	}
	return &S3Driver{
		bucket:        bucket,
		client:        s3.New(sess),
		uploader:      s3manager.NewUploader(sess),
		publicBaseURL: publicBaseURL,
	}, nil
}

func (d *S3Driver) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	buf, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	_, err = d.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf),
		ContentType: aws.String(contentType),
	})
	return err
}

func (d *S3Driver) PresignPut(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, _ := d.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	return req.Presign(expires)
}

func (d *S3Driver) PublicURL(key string) string {
	if d.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", trimSlash(d.publicBaseURL), key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", d.bucket, key)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// rejectedExtensions blocks SVG and common executable formats from direct
// multipart intake, per spec §4.9.
var rejectedExtensions = map[string]bool{
	".svg": true, ".exe": true, ".bat": true, ".sh": true,
	".cmd": true, ".msi": true, ".com": true, ".scr": true,
}

func ExtensionRejected(ext string) bool {
	return rejectedExtensions[ext]
}

// kindFromMIME maps a MIME type to the domain.AttachmentKind bucket used
// to render the attachment list.
func kindFromMIME(mime string) domain.AttachmentKind {
	switch {
	case hasPrefix(mime, "image/"):
		return domain.AttachmentImage
	case hasPrefix(mime, "video/"):
		return domain.AttachmentVideo
	case hasPrefix(mime, "audio/"):
		return domain.AttachmentAudio
	default:
		return domain.AttachmentFile
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
