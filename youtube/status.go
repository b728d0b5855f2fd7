/*
DESCRIPTION
  status.go provides lookup of the processing status of an uploaded video.

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

	"google.golang.org/api/youtube/v3"
)

var (
	ErrUnknownStatus = errors.New("unknown video status")
	ErrVideoNotFound = errors.New("video not found")
)

// Upload statuses of a video.
const (
	UploadStatusUploaded  = "uploaded"
	UploadStatusProcessed = "processed"
	UploadStatusFailed    = "failed"
	UploadStatusRejected  = "rejected"
	UploadStatusDeleted   = "deleted"
)

// CheckUploadStatus checks the status for the video with the associated videoID.
// the returned status will be one of:
// - UploadStatusUploaded
// - UploadStatusProcessed
// - UploadStatusFailed
// - UploadStatusRejected
// - UploadStatusDeleted
func CheckUploadStatus(ctx context.Context, svc *youtube.Service, videoID string) (string, error) {
	vid, err := svc.Videos.List([]string{"status"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get video status: %w", err)
	}

	if len(vid.Items) == 0 || vid.Items[0].Status == nil {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	switch s := vid.Items[0].Status.UploadStatus; s {
	case UploadStatusUploaded, UploadStatusProcessed, UploadStatusFailed, UploadStatusRejected, UploadStatusDeleted:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}
