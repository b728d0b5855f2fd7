/*
DESCRIPTION
  upload_test.go tests building of video metadata.

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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata(t *testing.T) {
	recorded := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	publish := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		opts      []VideoUploadOption
		wantParts []string
		wantJSON  string
	}{
		{
			name:      "title only",
			opts:      []VideoUploadOption{WithTitle("Reef")},
			wantParts: []string{"snippet"},
			wantJSON:  `{"snippet":{"title":"Reef"}}`,
		},
		{
			name: "snippet fields",
			opts: []VideoUploadOption{
				WithTitle("Reef"),
				WithDescription("A reef"),
				WithCategory("Music"),
				WithTags([]string{"ocean", "reef"}),
				WithLanguage("en"),
				WithAudioLanguage("en-GB"),
			},
			wantParts: []string{"snippet"},
			wantJSON:  `{"snippet":{"title":"Reef","description":"A reef","categoryId":"10","tags":["ocean","reef"],"defaultLanguage":"en","defaultAudioLanguage":"en-GB"}}`,
		},
		{
			name:      "explicit false embeddable",
			opts:      []VideoUploadOption{WithTitle("Reef"), WithEmbeddable(false), WithPrivacy("unlisted")},
			wantParts: []string{"snippet", "status"},
			wantJSON:  `{"snippet":{"title":"Reef"},"status":{"embeddable":false,"privacyStatus":"unlisted"}}`,
		},
		{
			name:      "publish time forces private",
			opts:      []VideoUploadOption{WithTitle("Reef"), WithPrivacy("public"), WithPublishAt(publish)},
			wantParts: []string{"snippet", "status"},
			wantJSON:  `{"snippet":{"title":"Reef"},"status":{"privacyStatus":"private","publishAt":"2025-01-02T12:00:00Z"}}`,
		},
		{
			name:      "recording details",
			opts:      []VideoUploadOption{WithTitle("Reef"), WithRecordingDate(recorded), WithLatitude(0), WithLongitude(138.6)},
			wantParts: []string{"snippet", "recordingDetails"},
			wantJSON:  `{"snippet":{"title":"Reef"},"recordingDetails":{"recordingDate":"2024-03-01T09:30:00Z","location":{"latitude":0,"longitude":138.6}}}`,
		},
		{
			name:      "license",
			opts:      []VideoUploadOption{WithTitle("Reef"), WithLicense("creativeCommon")},
			wantParts: []string{"snippet", "status"},
			wantJSON:  `{"snippet":{"title":"Reef"},"status":{"license":"creativeCommon"}}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := NewVideo(test.opts...)
			require.NoError(t, err)
			meta, err := Metadata(v)
			require.NoError(t, err)
			assert.Equal(t, test.wantParts, meta.Parts)
			assert.JSONEq(t, test.wantJSON, string(meta.JSON))
		})
	}
}

func TestNewVideoErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []VideoUploadOption
	}{
		{name: "no title", opts: []VideoUploadOption{WithDescription("d")}},
		{name: "empty title", opts: []VideoUploadOption{WithTitle("")}},
		{name: "bad privacy", opts: []VideoUploadOption{WithTitle("t"), WithPrivacy("secret")}},
		{name: "bad license", opts: []VideoUploadOption{WithTitle("t"), WithLicense("gpl")}},
		{name: "bad language", opts: []VideoUploadOption{WithTitle("t"), WithLanguage("English")}},
		{name: "bad latitude", opts: []VideoUploadOption{WithTitle("t"), WithLatitude(91)}},
		{name: "bad longitude", opts: []VideoUploadOption{WithTitle("t"), WithLongitude(-181)}},
		{name: "zero publish time", opts: []VideoUploadOption{WithTitle("t"), WithPublishAt(time.Time{})}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewVideo(test.opts...)
			assert.Error(t, err)
		})
	}

	_, err := NewVideo()
	assert.ErrorIs(t, err, ErrNoTitle)
}

func TestWithPrivacyValidationError(t *testing.T) {
	_, err := NewVideo(WithTitle("t"), WithPrivacy("secret"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "visibility", ve.Field)
	assert.Equal(t, Privacy, ve.Valid)
}
