// Package publish uploads exported report files to S3-compatible storage.
package publish

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/bstardust/exif-analyzer/pkg/s3client"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Published describes one uploaded report.
type Published struct {
	Path string
	Key  string
	Size int64
	// URL is a presigned download link, set when presigning is enabled.
	URL string
	// Replaced is set when an object already existed under Key.
	Replaced bool
}

// Publisher uploads files from fs through an S3 client.
type Publisher struct {
	client  s3client.S3Interface
	fs      afero.Fs
	retry   RetryConfig
	keyDir  string
	presign time.Duration
	meta    map[string]string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRetry replaces the default retry behavior.
func WithRetry(rc RetryConfig) Option {
	return func(p *Publisher) {
		p.retry = rc
	}
}

// WithKeyDir places objects under dir, below the client prefix.
func WithKeyDir(dir string) Option {
	return func(p *Publisher) {
		p.keyDir = dir
	}
}

// WithPresign requests a download link valid for expiry for every upload.
func WithPresign(expiry time.Duration) Option {
	return func(p *Publisher) {
		p.presign = expiry
	}
}

// WithMetadata attaches user metadata to every object.
func WithMetadata(meta map[string]string) Option {
	return func(p *Publisher) {
		p.meta = meta
	}
}

// New creates a new report publisher
func New(client s3client.S3Interface, fs afero.Fs, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		fs:     fs,
		retry:  DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the object key a local path is uploaded to.
func (p *Publisher) Key(localPath string) string {
	name := filepath.Base(localPath)
	if p.keyDir == "" {
		return name
	}
	return path.Join(p.keyDir, name)
}

// Publish uploads every path. A failed file does not stop the others unless
// the server rejected the credentials; the returned error combines all
// failures.
func (p *Publisher) Publish(ctx context.Context, paths []string) ([]Published, error) {
	var published []Published
	var errs error

	for i, localPath := range paths {
		item, err := p.publishOne(ctx, localPath)
		if err == nil {
			published = append(published, item)
			continue
		}

		logger.Error("Failed to publish %s: %s", localPath, s3client.FormatError(err))
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", localPath, err))
		if s3client.IsAuthError(err) {
			for _, rest := range paths[i+1:] {
				errs = multierr.Append(errs, fmt.Errorf("%s: not attempted: %w", rest, err))
			}
			break
		}
	}

	return published, errs
}

func (p *Publisher) publishOne(ctx context.Context, localPath string) (Published, error) {
	f, err := p.fs.Open(localPath)
	if err != nil {
		return Published{}, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Published{}, fmt.Errorf("failed to stat report: %w", err)
	}

	key := p.Key(localPath)
	item := Published{Path: localPath, Key: key, Size: info.Size()}

	exists, err := p.client.ObjectExists(ctx, key)
	switch {
	case s3client.IsAuthError(err):
		return Published{}, err
	case err != nil:
		logger.Debug("Could not check for existing %s: %v", key, err)
	case exists:
		logger.Warn("Replacing existing report %s", key)
		item.Replaced = true
	}

	contentType := s3client.DetectContentType(localPath)
	err = retry(ctx, p.retry, "upload "+key, func() error {
		// Rewind for each attempt
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind report: %w", err)
		}
		return p.client.UploadFile(ctx, f, key, info.Size(), p.meta, contentType)
	})
	if err != nil {
		return Published{}, err
	}

	if p.presign > 0 {
		u, err := p.client.GetPresignedURL(ctx, key, p.presign)
		if err != nil {
			logger.Warn("Failed to presign %s: %v", key, err)
		} else {
			item.URL = u
		}
	}

	logger.Info("Published %s to s3://%s/%s", localPath, p.client.GetBucketName(), path.Join(p.client.GetPrefix(), key))
	return item, nil
}
