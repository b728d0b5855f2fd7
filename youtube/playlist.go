/*
DESCRIPTION
  playlist.go provides adding of uploaded videos to a playlist of the
  authorised channel, creating the playlist if it does not exist.

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

// errFound stops paging once a playlist is found.
var errFound = errors.New("found")

// FindPlaylist returns the ID of the playlist of the authorised channel
// whose title is exactly title, or the empty string if there is none.
func FindPlaylist(ctx context.Context, svc *youtube.Service, title string) (string, error) {
	var id string
	err := svc.Playlists.List([]string{"snippet"}).Mine(true).MaxResults(50).Pages(ctx, func(resp *youtube.PlaylistListResponse) error {
		for _, p := range resp.Items {
			if p.Snippet != nil && p.Snippet.Title == title {
				id = p.Id
				return errFound
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("could not list playlists: %w", err)
	}
	return id, nil
}

// CreatePlaylist creates a playlist with the given title and privacy
// status and returns its ID.
func CreatePlaylist(ctx context.Context, svc *youtube.Service, title, privacy string) (string, error) {
	if !validPrivacy(privacy) {
		return "", &ValidationError{Field: "visibility", Value: privacy, Valid: Privacy}
	}
	p := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: privacy},
	}
	p, err := svc.Playlists.Insert([]string{"snippet", "status"}, p).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("could not create playlist %q: %w", title, err)
	}
	return p.Id, nil
}

// AddToPlaylist appends the video with ID videoID to the playlist titled
// title. The playlist is created with the given privacy status if it does
// not exist. The playlist ID is returned.
func AddToPlaylist(ctx context.Context, svc *youtube.Service, videoID, title, privacy string) (string, error) {
	id, err := FindPlaylist(ctx, svc, title)
	if err != nil {
		return "", err
	}
	if id == "" {
		id, err = CreatePlaylist(ctx, svc, title, privacy)
		if err != nil {
			return "", err
		}
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: id,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}
	_, err = svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("could not add video %s to playlist %q: %w", videoID, title, err)
	}
	return id, nil
}
