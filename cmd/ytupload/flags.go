/*
DESCRIPTION
  flags.go provides parsing and validation of the upload command's flags.

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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/ytupload/auth"
	"github.com/ausocean/ytupload/upload"
	"github.com/ausocean/ytupload/youtube"
	"github.com/docker/go-units"
)

// Log levels by name.
var logLevels = map[string]int8{
	"debug":   logging.Debug,
	"info":    logging.Info,
	"warning": logging.Warning,
	"error":   logging.Error,
	"fatal":   logging.Fatal,
}

// Accepted date layouts, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// errUsage is returned for invalid command lines, after usage is printed.
var errUsage = errors.New("invalid usage")

// arrayFlags is a flag that may be given more than once.
type arrayFlags []string

// String is an implementation of the flag.Value interface
func (i *arrayFlags) String() string {
	return fmt.Sprintf("%v", *i)
}

// Set is an implementation of the flag.Value interface
func (i *arrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

// floatFlag is a float64 flag that records whether it was set.
type floatFlag struct {
	v   float64
	set bool
}

func (f *floatFlag) String() string {
	if !f.set {
		return ""
	}
	return fmt.Sprint(f.v)
}

func (f *floatFlag) Set(s string) error {
	_, err := fmt.Sscan(s, &f.v)
	if err != nil {
		return err
	}
	if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
		return fmt.Errorf("not a finite number: %s", s)
	}
	f.set = true
	return nil
}

// uploadConfig holds the options of the upload command.
type uploadConfig struct {
	video             string
	title             string
	genre             string
	description       string
	playlist          string
	thumbnail         string
	tags              arrayFlags
	publishAt         string
	recordingDate     string
	language          string
	audioLanguage     string
	license           string
	visibility        string
	embeddable        string
	latitude          floatFlag
	longitude         floatFlag
	altitude          floatFlag
	clientSecrets     string
	credentials       string
	clientSecretsPass string
	credentialsPass   string
	chunkSize         string
	retries           int
	logLevel          string
	quiet             bool
}

// parseUploadFlags parses the arguments of the upload command. Usage is
// written to w on error.
func parseUploadFlags(args []string, w io.Writer) (*uploadConfig, error) {
	c := &uploadConfig{}
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: %s upload [flags] <video>\n\nFlags:\n", cmdName)
		fs.PrintDefaults()
	}

	str := func(p *string, short, long, value, usage string) {
		fs.StringVar(p, long, value, usage)
		fs.StringVar(p, short, value, usage+" (same as -"+long+")")
	}
	str(&c.title, "t", "title", "", "Video title, defaults to the file name")
	str(&c.genre, "g", "genre", "", "Video genre (category) name or ID, see the genres command")
	str(&c.description, "d", "description", "", "Video description")
	str(&c.playlist, "p", "playlist", "", "Playlist title to add the video to, created if needed")
	str(&c.thumbnail, "n", "thumbnail", "", "Thumbnail image file (JPEG or PNG)")
	str(&c.publishAt, "D", "publish-at", "", "Scheduled publish time (ISO 8601), makes the video private until then")
	str(&c.recordingDate, "r", "recording-date", "", "Recording date (ISO 8601)")
	str(&c.language, "l", "language", "", "Language of the title and description, e.g. en")
	str(&c.audioLanguage, "a", "audio-language", "", "Language spoken in the video, e.g. en")
	str(&c.license, "L", "license", "", "License (youtube or creativeCommon)")
	str(&c.visibility, "V", "visibility", "", "Visibility (public, unlisted or private)")
	str(&c.embeddable, "e", "embeddable", "", "Whether the video may be embedded (true or false)")
	str(&c.clientSecrets, "s", "client-secrets", "", "Client secrets file, gs:// URL or pass:<key>")
	str(&c.credentials, "c", "credentials", "", "Credentials file, gs:// URL or pass:<key>")
	str(&c.clientSecretsPass, "S", "client-secrets-pass", "", "Client secrets pass entry")
	str(&c.credentialsPass, "C", "credentials-pass", "", "Credentials pass entry")
	fs.Var(&c.tags, "tag", "Video tag, may be repeated")
	fs.Var(&c.tags, "T", "Video tag, may be repeated (same as -tag)")
	fs.Var(&c.latitude, "latitude", "Recording location latitude in degrees")
	fs.Var(&c.longitude, "longitude", "Recording location longitude in degrees")
	fs.Var(&c.altitude, "altitude", "Recording location altitude in metres")
	fs.StringVar(&c.chunkSize, "chunksize", "8MiB", "Upload chunk size, a multiple of 256KiB such as 4MiB")
	fs.IntVar(&c.retries, "retries", upload.DefaultMaxRetries, "Maximum attempts for each upload request and for the whole upload")
	fs.StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warning, error or fatal)")
	fs.BoolVar(&c.quiet, "q", false, "Do not show upload progress")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected one video file, got %d arguments", errUsage, fs.NArg())
	}
	c.video = fs.Arg(0)
	if c.title == "" {
		c.title = filepath.Base(c.video)
	}
	return c, nil
}

// videoOptions returns the video metadata options given by the flags.
func (c *uploadConfig) videoOptions() ([]youtube.VideoUploadOption, error) {
	opts := []youtube.VideoUploadOption{youtube.WithTitle(c.title)}
	if c.description != "" {
		opts = append(opts, youtube.WithDescription(c.description))
	}
	if c.genre != "" {
		opts = append(opts, youtube.WithCategory(c.genre))
	}
	if len(c.tags) != 0 {
		opts = append(opts, youtube.WithTags(c.tags))
	}
	if c.language != "" {
		opts = append(opts, youtube.WithLanguage(c.language))
	}
	if c.audioLanguage != "" {
		opts = append(opts, youtube.WithAudioLanguage(c.audioLanguage))
	}
	if c.visibility != "" {
		opts = append(opts, youtube.WithPrivacy(c.visibility))
	}
	if c.license != "" {
		opts = append(opts, youtube.WithLicense(c.license))
	}
	if c.embeddable != "" {
		switch strings.ToLower(c.embeddable) {
		case "true", "yes", "1":
			opts = append(opts, youtube.WithEmbeddable(true))
		case "false", "no", "0":
			opts = append(opts, youtube.WithEmbeddable(false))
		default:
			return nil, fmt.Errorf("invalid embeddable %q, must be true or false", c.embeddable)
		}
	}
	if c.publishAt != "" {
		t, err := parseDate(c.publishAt)
		if err != nil {
			return nil, fmt.Errorf("invalid publish time: %w", err)
		}
		opts = append(opts, youtube.WithPublishAt(t))
	}
	if c.recordingDate != "" {
		t, err := parseDate(c.recordingDate)
		if err != nil {
			return nil, fmt.Errorf("invalid recording date: %w", err)
		}
		opts = append(opts, youtube.WithRecordingDate(t))
	}
	if c.latitude.set {
		opts = append(opts, youtube.WithLatitude(c.latitude.v))
	}
	if c.longitude.set {
		opts = append(opts, youtube.WithLongitude(c.longitude.v))
	}
	if c.altitude.set {
		opts = append(opts, youtube.WithAltitude(c.altitude.v))
	}
	return opts, nil
}

// chunkBytes returns the chunk size in bytes, which must be a multiple of
// upload.ChunkMultiple.
func (c *uploadConfig) chunkBytes() (int64, error) {
	n, err := units.RAMInBytes(c.chunkSize)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q: %w", c.chunkSize, err)
	}
	if n <= 0 || n%upload.ChunkMultiple != 0 {
		return 0, fmt.Errorf("invalid chunk size %q: must be a positive multiple of %s", c.chunkSize, units.BytesSize(upload.ChunkMultiple))
	}
	return n, nil
}

// level returns the log level.
func (c *uploadConfig) level() (int8, error) {
	l, ok := logLevels[strings.ToLower(c.logLevel)]
	if !ok {
		return 0, fmt.Errorf("invalid log level %q", c.logLevel)
	}
	return l, nil
}

// stores returns the sources of the client secrets and credentials. A pass
// entry takes the place of the file of the same kind, and the files
// default to those in the data directory.
func (c *uploadConfig) stores(cfg auth.Config) (secrets, creds string, err error) {
	secrets, err = choose(c.clientSecrets, c.clientSecretsPass, cfg.ClientSecretsPath(), "client secrets")
	if err != nil {
		return "", "", err
	}
	creds, err = choose(c.credentials, c.credentialsPass, cfg.CredentialsPath(), "credentials")
	if err != nil {
		return "", "", err
	}
	return secrets, creds, nil
}

func choose(src, pass, def, what string) (string, error) {
	switch {
	case src != "" && pass != "":
		return "", fmt.Errorf("%s: a source and a pass entry cannot both be given", what)
	case pass != "":
		return "pass:" + pass, nil
	case src != "":
		return src, nil
	default:
		return def, nil
	}
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse %q as an ISO 8601 date", s)
}
