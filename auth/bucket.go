/*
DESCRIPTION
  bucket.go provides a Store backed by a Google Storage bucket object.

LICENSE
  Copyright (C) 2025 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ausocean/ytupload/upload"
	"google.golang.org/api/option"
)

// BucketStore is a Store backed by a Google Storage bucket object, named
// by a URL of the form gs://bucket/object.
type BucketStore struct {
	uri    string
	bucket string
	object string
	opts   []option.ClientOption
}

// NewBucketStore returns a BucketStore for the object at uri. The storage
// client is created with opts on each access.
func NewBucketStore(uri string, opts ...option.ClientOption) (*BucketStore, error) {
	bkt, obj, err := googleStorageAddr(uri)
	if err != nil {
		return nil, fmt.Errorf("could not parse uri: %w", err)
	}
	if bkt == "" || obj == "" {
		return nil, fmt.Errorf("uri must name a bucket and object: %s", uri)
	}
	return &BucketStore{uri: uri, bucket: bkt, object: obj, opts: opts}, nil
}

// getObject retrieves the bucket object of the store. The existence of the
// object is checked and an error returned if it does not exist. The object
// handle is still returned along with the error, allowing creation of the
// object by writing to it.
func (s *BucketStore) getObject(ctx context.Context) (*storage.ObjectHandle, func() error, error) {
	c, err := storage.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create storage client: %w", err)
	}

	obj := c.Bucket(s.bucket).Object(s.object)
	_, err = obj.Attrs(ctx)
	if err != nil {
		return obj, c.Close, fmt.Errorf("error getting object named: %s: %w", s.object, err)
	}
	return obj, c.Close, nil
}

// Load implements Store.
func (s *BucketStore) Load(ctx context.Context) ([]byte, error) {
	obj, done, err := s.getObject(ctx)
	if done != nil {
		defer done()
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, &upload.NotFoundError{What: "bucket object", Name: s.uri, Err: err}
	}
	if err != nil {
		return nil, err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read bucket object: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Save implements Store. Writing will overwrite previous data in the
// object if it exists.
func (s *BucketStore) Save(ctx context.Context, data []byte) error {
	obj, done, err := s.getObject(ctx)
	if done != nil {
		defer done()
	}
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	_, err = w.Write(data)
	if err != nil {
		w.Close()
		return fmt.Errorf("could not write to object: %w", err)
	}
	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close written object: %w", err)
	}
	return nil
}

// Delete implements Store. Deleting an object that does not exist is not
// an error.
func (s *BucketStore) Delete(ctx context.Context) error {
	obj, done, err := s.getObject(ctx)
	if done != nil {
		defer done()
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	err = obj.Delete(ctx)
	if err != nil {
		return fmt.Errorf("could not delete object: %w", err)
	}
	return nil
}

func (s *BucketStore) String() string { return s.uri }

func googleStorageAddr(addr string) (bucket, object string, err error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("url does not have gs scheme: %s", u)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
