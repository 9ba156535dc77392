// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gcs reads and writes run artifacts in Google Cloud Storage.
package gcs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// Path is a parsed gs:// object path.
type Path struct {
	Bucket string
	Object string
}

// String renders the path back in gs:// form.
func (p Path) String() string {
	if p.Object == "" {
		return "gs://" + p.Bucket
	}
	return "gs://" + p.Bucket + "/" + p.Object
}

// Join appends path elements to the object portion.
func (p Path) Join(elems ...string) Path {
	parts := append([]string{}, elems...)
	if p.Object != "" {
		parts = append([]string{strings.TrimSuffix(p.Object, "/")}, parts...)
	}
	return Path{Bucket: p.Bucket, Object: strings.Join(parts, "/")}
}

// ParsePath splits a gs://bucket/object path into its components.
func ParsePath(gcsPath string) (Path, error) {
	if !strings.HasPrefix(gcsPath, "gs://") {
		return Path{}, errors.Errorf("GCS path %q must start with gs://", gcsPath)
	}
	trimmed := strings.TrimPrefix(gcsPath, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return Path{}, errors.Errorf("GCS path %q has no bucket name", gcsPath)
	}
	p := Path{Bucket: parts[0]}
	if len(parts) == 2 {
		p.Object = parts[1]
	}
	return p, nil
}

// Client wraps the storage API for listing, downloading and uploading run
// artifacts.
type Client struct {
	storage *storage.Client
}

// NewClient creates a storage-backed client using application default
// credentials.
func NewClient(ctx context.Context) (*Client, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCS client")
	}
	return &Client{storage: sc}, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	return c.storage.Close()
}

// List returns the names of all objects in the bucket under the prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := c.storage.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list gs://%s/%s", bucket, prefix)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Download reads an object's full content.
func (c *Client) Download(ctx context.Context, p Path) ([]byte, error) {
	reader, err := c.storage.Bucket(p.Bucket).Object(p.Object).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", p)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", p)
	}
	return content, nil
}

// DownloadPrefix mirrors every object under the prefix into destDir,
// preserving the object paths relative to the prefix. It returns the number
// of objects downloaded.
func (c *Client) DownloadPrefix(ctx context.Context, bucket, prefix, destDir string) (int, error) {
	names, err := c.List(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}

	downloaded := 0
	for _, name := range names {
		rel := strings.TrimPrefix(strings.TrimPrefix(name, prefix), "/")
		if rel == "" {
			continue
		}
		content, err := c.Download(ctx, Path{Bucket: bucket, Object: name})
		if err != nil {
			return downloaded, err
		}

		localPath := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
			return downloaded, errors.Wrapf(err, "failed to create directory for %s", localPath)
		}
		if err := os.WriteFile(localPath, content, 0644); err != nil {
			return downloaded, errors.Wrapf(err, "failed to write %s", localPath)
		}
		downloaded++
	}
	return downloaded, nil
}

// Upload writes content to an object, replacing any existing object.
func (c *Client) Upload(ctx context.Context, p Path, content io.Reader) error {
	writer := c.storage.Bucket(p.Bucket).Object(p.Object).NewWriter(ctx)
	if _, err := io.Copy(writer, content); err != nil {
		writer.Close()
		return errors.Wrapf(err, "failed to write %s", p)
	}
	if err := writer.Close(); err != nil {
		return errors.Wrapf(err, "failed to finalize %s", p)
	}
	return nil
}
