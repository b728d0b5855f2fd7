/*
DESCRIPTION
  store_test.go tests the file store, store selection and Google Storage
  address parsing.

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
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/ytupload/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleStorageAddr(t *testing.T) {
	const (
		wantBkt = "ausocean"
		wantObj = "Secret-file.json"
		testURI = "gs://" + wantBkt + "/" + wantObj
	)

	bkt, obj, err := googleStorageAddr(testURI)
	if err != nil {
		t.Fatalf("did not expect error: %v from googleStorageAddr", err)
	}

	if bkt != wantBkt {
		t.Errorf("did not get expected bkt name, got: %s want: %s", bkt, wantBkt)
	}

	if obj != wantObj {
		t.Errorf("did not get expected obj name, got: %s want: %s", obj, wantObj)
	}

	_, _, err = googleStorageAddr("https://ausocean/file.json")
	if err == nil {
		t.Errorf("expected error for non gs url")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "yt-upload", "credentials.json")
	s := &FileStore{Path: path}

	_, err := s.Load(ctx)
	var nf *upload.NotFoundError
	require.ErrorAs(t, err, &nf)

	ok, err := Exists(ctx, s)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, []byte(`{"access_token":"a"}`)))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"a"}`, string(got))

	require.NoError(t, s.Save(ctx, []byte(`{}`)))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got), "save should truncate")

	ok, err = Exists(ctx, s)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx), "deleting twice is not an error")
	_, err = s.Load(ctx)
	assert.ErrorAs(t, err, &nf)
}

func TestNewStore(t *testing.T) {
	cfg := Config{DataDir: "/data", PasswordStoreDir: "/pass"}

	s, err := NewStore("pass:youtube/credentials", cfg)
	require.NoError(t, err)
	ps, ok := s.(*PassStore)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, "youtube/credentials", ps.key)
	assert.Equal(t, "/pass", ps.dir)
	assert.Equal(t, "pass:youtube/credentials", s.String())

	s, err = NewStore("gs://bucket/dir/token.json", cfg)
	require.NoError(t, err)
	bs, ok := s.(*BucketStore)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, "bucket", bs.bucket)
	assert.Equal(t, "dir/token.json", bs.object)

	s, err = NewStore("/home/user/credentials.json", cfg)
	require.NoError(t, err)
	assert.Equal(t, &FileStore{Path: "/home/user/credentials.json"}, s)

	for _, src := range []string{"", "pass:", "gs://bucket"} {
		_, err = NewStore(src, cfg)
		assert.Error(t, err, "source %q", src)
	}
}
