// Package upload stores exported banners and returns their public URLs.
package upload

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"banner-editor/internal/image"
)

// Store uploads an encoded asset and returns the URL it is served from.
type Store interface {
	Upload(ctx context.Context, asset *image.CroppedAsset) (string, error)
}

// Options selects and configures a store backend.
type Options struct {
	Type          string // "filesystem" or "s3"
	LocalPath     string
	PublicBaseURL string
	Bucket        string
	Endpoint      string
	Region        string
	Prefix        string
	AccessKeyID   string
	SecretKey     string
}

// New returns the store selected by opts.Type.
func New(ctx context.Context, opts Options) (Store, error) {
	fields := logrus.Fields{"storageType": opts.Type}

	var (
		store Store
		err   error
	)
	switch opts.Type {
	case "", "filesystem":
		fields["storageType"] = "filesystem"
		fields["basePath"] = opts.LocalPath
		store, err = NewFileStore(opts.LocalPath, opts.PublicBaseURL, opts.Prefix)
	case "s3":
		if opts.Bucket == "" {
			return nil, fmt.Errorf("s3 storage needs a bucket name")
		}
		fields["bucketName"] = opts.Bucket
		fields["endpoint"] = opts.Endpoint
		store, err = NewS3Store(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown storage type %q", opts.Type)
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(fields).Info("Use storage")
	return store, nil
}

// objectKey returns a unique key for fileName under prefix. The ULID makes
// every upload a new object, so a re-published banner never hits a stale
// cache entry.
func objectKey(prefix, fileName string) string {
	name := ulid.Make().String() + "_" + fileName
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
