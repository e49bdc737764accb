// Package inline provides an Uploader that keeps image bytes in the returned
// URL instead of pushing them to object storage. It backs demo deployments
// where no GCS credentials exist: every upload becomes a data URL the
// frontend can render directly.
package inline

import (
	"context"
	"encoding/base64"
	"fmt"
)

type Uploader struct{}

func New() *Uploader {
	return &Uploader{}
}

// Upload encodes the bytes as a data URL. Bucket and object are ignored.
func (u *Uploader) Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload payload")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

// PublicURL has nothing stable to point at; inline uploads carry their own
// payload, so the identifier is returned untouched.
func (u *Uploader) PublicURL(bucket, object string) string {
	return object
}
