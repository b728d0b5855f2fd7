/*
DESCRIPTION
  upload.go provides functional options for building the metadata of a
  video to be uploaded to YouTube, and its conversion to an upload request
  body.

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

// Package youtube provides the YouTube specific parts of video uploading:
// building video metadata, attaching thumbnails and adding videos to
// playlists.
package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ausocean/ytupload/upload"
	"google.golang.org/api/youtube/v3"
)

// Privacy statuses.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// Licenses.
const (
	LicenseYouTube        = "youtube"
	LicenseCreativeCommon = "creativeCommon"
)

// Metadata parts.
const (
	partSnippet          = "snippet"
	partStatus           = "status"
	partRecordingDetails = "recordingDetails"
)

// ErrNoTitle is returned by NewVideo if no title was given.
var ErrNoTitle = errors.New("video title is required")

// Privacy and License list the accepted values of WithPrivacy and
// WithLicense.
var (
	Privacy = []string{PrivacyPublic, PrivacyUnlisted, PrivacyPrivate}
	License = []string{LicenseYouTube, LicenseCreativeCommon}
)

// Language codes are ISO 639-1 with an optional region, e.g. "en" or "en-GB".
var languageCode = regexp.MustCompile(`^[a-z]{2}(-[A-Za-z0-9]{2,8})*$`)

// VideoUploadOption is a functional option type for configuring YouTube video uploads.
type VideoUploadOption func(*youtube.Video) error

// WithTitle sets the title of the video being uploaded.
// It returns an error if the title is empty.
func WithTitle(title string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if title == "" {
			return fmt.Errorf("title cannot be empty")
		}
		video.Snippet.Title = title
		return nil
	}
}

// WithDescription sets the description of the video being uploaded.
// It returns an error if the description is empty.
func WithDescription(description string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if description == "" {
			return fmt.Errorf("description cannot be empty")
		}
		video.Snippet.Description = description
		return nil
	}
}

// WithCategory sets the category of the video being uploaded.
// It accepts either a category ID or a category name from Categories.
// It returns a *ValidationError if the category is not found.
func WithCategory(genre string) VideoUploadOption {
	return func(video *youtube.Video) error {
		id, err := CategoryID(genre)
		if err != nil {
			return err
		}
		video.Snippet.CategoryId = strconv.Itoa(id)
		return nil
	}
}

// WithTags sets the tags for the video being uploaded.
// It returns an error if the tags slice is empty.
func WithTags(tags []string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if len(tags) == 0 {
			return fmt.Errorf("tags cannot be empty")
		}
		video.Snippet.Tags = tags
		return nil
	}
}

// WithLanguage sets the language of the title and description.
func WithLanguage(code string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if !languageCode.MatchString(code) {
			return &ValidationError{Field: "language", Value: code}
		}
		video.Snippet.DefaultLanguage = code
		return nil
	}
}

// WithAudioLanguage sets the language spoken in the video.
func WithAudioLanguage(code string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if !languageCode.MatchString(code) {
			return &ValidationError{Field: "audio language", Value: code}
		}
		video.Snippet.DefaultAudioLanguage = code
		return nil
	}
}

// WithPrivacy sets the privacy status of the video being uploaded.
// It accepts "public", "unlisted", or "private" as valid privacy statuses.
// It returns a *ValidationError if the privacy status is invalid.
func WithPrivacy(privacy string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if !validPrivacy(privacy) {
			return &ValidationError{Field: "visibility", Value: privacy, Valid: Privacy}
		}
		video.Status.PrivacyStatus = privacy
		return nil
	}
}

// WithLicense sets the license of the video, either "youtube" or
// "creativeCommon".
func WithLicense(license string) VideoUploadOption {
	return func(video *youtube.Video) error {
		if license != LicenseYouTube && license != LicenseCreativeCommon {
			return &ValidationError{Field: "license", Value: license, Valid: License}
		}
		video.Status.License = license
		return nil
	}
}

// WithEmbeddable sets whether the video may be embedded on other sites.
// The value is sent even when false.
func WithEmbeddable(embeddable bool) VideoUploadOption {
	return func(video *youtube.Video) error {
		video.Status.Embeddable = embeddable
		video.Status.ForceSendFields = append(video.Status.ForceSendFields, "Embeddable")
		return nil
	}
}

// WithPublishAt schedules the video to be published at t. Scheduled videos
// must be private until then, so NewVideo sets the privacy status to
// private.
func WithPublishAt(t time.Time) VideoUploadOption {
	return func(video *youtube.Video) error {
		if t.IsZero() {
			return fmt.Errorf("publish time cannot be zero")
		}
		video.Status.PublishAt = t.Format(time.RFC3339)
		return nil
	}
}

// WithRecordingDate sets the date and time the video was recorded. It is
// sent as recordingDetails.recordingDate, as the status part has no such
// field.
func WithRecordingDate(t time.Time) VideoUploadOption {
	return func(video *youtube.Video) error {
		if t.IsZero() {
			return fmt.Errorf("recording date cannot be zero")
		}
		recordingDetails(video).RecordingDate = t.Format(time.RFC3339)
		return nil
	}
}

// WithLatitude sets the latitude, in degrees, of the recording location.
func WithLatitude(lat float64) VideoUploadOption {
	return func(video *youtube.Video) error {
		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude out of range: %v", lat)
		}
		loc := location(video)
		loc.Latitude = lat
		loc.ForceSendFields = append(loc.ForceSendFields, "Latitude")
		return nil
	}
}

// WithLongitude sets the longitude, in degrees, of the recording location.
func WithLongitude(long float64) VideoUploadOption {
	return func(video *youtube.Video) error {
		if long < -180 || long > 180 {
			return fmt.Errorf("longitude out of range: %v", long)
		}
		loc := location(video)
		loc.Longitude = long
		loc.ForceSendFields = append(loc.ForceSendFields, "Longitude")
		return nil
	}
}

// WithAltitude sets the altitude, in metres above the reference
// ellipsoid, of the recording location.
func WithAltitude(alt float64) VideoUploadOption {
	return func(video *youtube.Video) error {
		loc := location(video)
		loc.Altitude = alt
		loc.ForceSendFields = append(loc.ForceSendFields, "Altitude")
		return nil
	}
}

func recordingDetails(video *youtube.Video) *youtube.VideoRecordingDetails {
	if video.RecordingDetails == nil {
		video.RecordingDetails = &youtube.VideoRecordingDetails{}
	}
	return video.RecordingDetails
}

func location(video *youtube.Video) *youtube.GeoPoint {
	rd := recordingDetails(video)
	if rd.Location == nil {
		rd.Location = &youtube.GeoPoint{}
	}
	return rd.Location
}

// NewVideo returns the video resource built by applying opts. Only the
// fields set by an option are populated; groups with no fields set are
// left nil so they are omitted from the request.
func NewVideo(opts ...VideoUploadOption) (*youtube.Video, error) {
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{},
		Status:  &youtube.VideoStatus{},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(video); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if video.Snippet.Title == "" {
		return nil, ErrNoTitle
	}
	if video.Status.PublishAt != "" {
		video.Status.PrivacyStatus = PrivacyPrivate
	}
	if emptyStatus(video.Status) {
		video.Status = nil
	}
	return video, nil
}

// Metadata returns the upload request body for video, naming the parts
// that are present.
func Metadata(video *youtube.Video) (upload.Metadata, error) {
	var parts []string
	if video.Snippet != nil {
		parts = append(parts, partSnippet)
	}
	if video.Status != nil {
		parts = append(parts, partStatus)
	}
	if video.RecordingDetails != nil {
		parts = append(parts, partRecordingDetails)
	}

	b, err := json.Marshal(video)
	if err != nil {
		return upload.Metadata{}, fmt.Errorf("could not marshal video metadata: %w", err)
	}
	return upload.Metadata{Parts: parts, JSON: b}, nil
}

// emptyStatus reports whether none of the status fields set by options
// are set.
func emptyStatus(s *youtube.VideoStatus) bool {
	return s.PrivacyStatus == "" && s.License == "" && s.PublishAt == "" && len(s.ForceSendFields) == 0
}

func validPrivacy(privacy string) bool {
	validStatuses := map[string]bool{
		PrivacyPublic:   true,
		PrivacyUnlisted: true,
		PrivacyPrivate:  true,
	}
	return validStatuses[privacy]
}
