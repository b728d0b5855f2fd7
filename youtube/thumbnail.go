/*
DESCRIPTION
  thumbnail.go provides setting of a custom thumbnail for an uploaded video.

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

package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ausocean/ytupload/upload"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

// Thumbnail image types accepted by YouTube, by file extension.
var thumbnailTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// CheckThumbnail returns an error if path is not a readable image file
// that may be used as a thumbnail.
func CheckThumbnail(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := thumbnailTypes[ext]; !ok {
		return &ValidationError{Field: "thumbnail type", Value: ext, Valid: []string{".jpg", ".jpeg", ".png"}}
	}
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return &upload.NotFoundError{What: "thumbnail", Name: path, Err: err}
	}
	if err != nil {
		return fmt.Errorf("could not stat thumbnail: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("thumbnail %s is not a regular file", path)
	}
	return nil
}

// SetThumbnail sets the image at path as the thumbnail of the video with
// ID videoID.
func SetThumbnail(ctx context.Context, svc *youtube.Service, videoID, path string) error {
	err := CheckThumbnail(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open thumbnail: %w", err)
	}
	defer f.Close()

	ct := thumbnailTypes[strings.ToLower(filepath.Ext(path))]
	_, err = svc.Thumbnails.Set(videoID).Media(f, googleapi.ContentType(ct)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("could not set thumbnail for video %s: %w", videoID, err)
	}
	return nil
}
