/*
DESCRIPTION
  ytupload is a command-line utility for uploading videos to YouTube using
  the YouTube Data API v3 resumable upload protocol.

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

// Ytupload uploads a video file to YouTube with its metadata, and
// optionally sets its thumbnail and adds it to a playlist.
//
// Client secrets and credentials are kept in the yt-upload directory under
// $XDG_DATA_HOME by default, or may be given as files, Google Storage
// objects (gs://bucket/object) or pass entries (pass:<key>). If there are
// no valid credentials the user is asked to authorise access.
//
// Usage:
//
//	ytupload upload [flags] <video>
//	ytupload genres
//	ytupload -version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/ytupload/auth"
	"github.com/ausocean/ytupload/upload"
	"github.com/ausocean/ytupload/youtube"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"
	"google.golang.org/api/option"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	cmdName = "ytupload"
	version = "v0.1.0"
)

// Logging configuration.
const (
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logSuppress  = true
)

const watchURL = "https://www.youtube.com/watch?v="

// Environment variables overriding the YouTube endpoints, e.g. to use a
// proxy.
const (
	envUploadEndpoint = "YTUPLOAD_UPLOAD_ENDPOINT"
	envAPIEndpoint    = "YTUPLOAD_API_ENDPOINT"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, env.NewRepository())
	stop()
	os.Exit(code)
}

// run runs the command given by args and returns the exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, r env.Repository) int {
	fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  %[1]s upload [flags] <video>\n  %[1]s genres\n  %[1]s -version\n", cmdName)
	}
	showVersion := fs.Bool("version", false, "Show version")
	err := fs.Parse(args)
	if err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, cmdName, version)
		return 0
	}

	switch fs.Arg(0) {
	case "genres":
		printGenres(stdout)
		return 0
	case "upload":
		err = runUpload(ctx, fs.Args()[1:], stdin, stdout, stderr, r)
	default:
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp), errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "%s: %v\n", cmdName, err)
		return 1
	}
}

func printGenres(w io.Writer) {
	for _, c := range youtube.Categories {
		fmt.Fprintf(w, "%2d  %s\n", c.ID, c.Name)
	}
}

// plan holds everything needed for an upload, checked before any network
// request is made.
type plan struct {
	cfg       *uploadConfig
	level     int8
	chunkSize int64
	meta      upload.Metadata
	privacy   string
	secrets   auth.Store
	creds     auth.Store
	logPath   string

	// Endpoint overrides, empty for the defaults.
	uploadEndpoint string
	apiEndpoint    string
}

// newPlan validates the upload flags and local resources.
func newPlan(ctx context.Context, c *uploadConfig, r env.Repository) (*plan, error) {
	p := &plan{cfg: c}

	var err error
	p.level, err = c.level()
	if err != nil {
		return nil, err
	}
	p.chunkSize, err = c.chunkBytes()
	if err != nil {
		return nil, err
	}
	if c.retries <= 0 {
		return nil, fmt.Errorf("invalid retries %d: must be positive", c.retries)
	}

	opts, err := c.videoOptions()
	if err != nil {
		return nil, err
	}
	video, err := youtube.NewVideo(opts...)
	if err != nil {
		return nil, err
	}
	p.meta, err = youtube.Metadata(video)
	if err != nil {
		return nil, err
	}
	p.privacy = youtube.PrivacyPrivate
	if video.Status != nil && video.Status.PrivacyStatus != "" {
		p.privacy = video.Status.PrivacyStatus
	}

	fi, err := os.Stat(c.video)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &upload.NotFoundError{What: "video file", Name: c.video, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("could not stat video file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("video %s is not a regular file", c.video)
	}
	if c.thumbnail != "" {
		err = youtube.CheckThumbnail(c.thumbnail)
		if err != nil {
			return nil, err
		}
	}

	cfg := auth.NewConfig(r)
	p.logPath = cfg.LogPath()
	p.uploadEndpoint = r.Get(envUploadEndpoint)
	p.apiEndpoint = r.Get(envAPIEndpoint)
	secretsSrc, credsSrc, err := c.stores(cfg)
	if err != nil {
		return nil, err
	}
	p.secrets, err = auth.NewStore(secretsSrc, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid client secrets source: %w", err)
	}
	p.creds, err = auth.NewStore(credsSrc, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials source: %w", err)
	}
	ok, err := auth.Exists(ctx, p.secrets)
	if err != nil {
		return nil, fmt.Errorf("could not check client secrets: %w", err)
	}
	if !ok {
		return nil, &upload.NotFoundError{What: "client secrets", Name: p.secrets.String()}
	}
	return p, nil
}

func runUpload(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, r env.Repository) error {
	c, err := parseUploadFlags(args, stderr)
	if err != nil {
		return err
	}
	p, err := newPlan(ctx, c, r)
	if err != nil {
		return err
	}

	log := newLogger(p.logPath, p.level, stderr)
	log.Info("starting upload", "version", version, "file", c.video, "chunkSize", units.BytesSize(float64(p.chunkSize)), "retries", c.retries)

	provider, err := auth.NewProvider(p.secrets, p.creds, log, auth.WithPrompt(stdin, stderr))
	if err != nil {
		return err
	}
	hc, err := provider.Client(ctx)
	if err != nil {
		return err
	}
	var svcOpts []option.ClientOption
	if p.apiEndpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(p.apiEndpoint))
	}
	svc, err := auth.Service(ctx, hc, svcOpts...)
	if err != nil {
		return err
	}
	var rtOpts []upload.TransportOption
	if p.uploadEndpoint != "" {
		rtOpts = append(rtOpts, upload.WithEndpoint(p.uploadEndpoint))
	}
	rt, err := upload.NewResumableTransport(hc, log, c.retries, rtOpts...)
	if err != nil {
		return err
	}

	opts := []upload.Option{upload.WithChunkSize(p.chunkSize), upload.WithMaxRetries(c.retries)}
	if mt := mime.TypeByExtension(filepath.Ext(c.video)); mt != "" {
		opts = append(opts, upload.WithMediaType(mt))
	}
	var bar *progressBar
	if !c.quiet {
		bar = newProgressBar(stderr)
		opts = append(opts, upload.WithProgress(bar))
	}
	d, err := upload.NewDriver(rt, log, opts...)
	if err != nil {
		return err
	}

	id, err := d.Upload(ctx, c.video, p.meta)
	if bar != nil {
		bar.finish()
	}
	if err != nil {
		log.Error("upload failed", "file", c.video, "error", err)
		return err
	}
	log.Info("uploaded video", "file", c.video, "id", id)
	fmt.Fprintln(stdout, watchURL+id)

	if c.thumbnail != "" {
		err = youtube.SetThumbnail(ctx, svc, id, c.thumbnail)
		if err != nil {
			return fmt.Errorf("video %s uploaded but thumbnail not set: %w", id, err)
		}
		log.Info("set thumbnail", "id", id, "thumbnail", c.thumbnail)
	}
	if c.playlist != "" {
		pl, err := youtube.AddToPlaylist(ctx, svc, id, c.playlist, p.privacy)
		if err != nil {
			return fmt.Errorf("video %s uploaded but not added to playlist: %w", id, err)
		}
		log.Info("added video to playlist", "id", id, "playlist", c.playlist, "playlistID", pl)
	}

	status, err := youtube.CheckUploadStatus(ctx, svc, id)
	if err != nil {
		log.Warning("could not check upload status", "id", id, "error", err)
		return nil
	}
	log.Info("upload status", "id", id, "status", status)
	return nil
}

// consoleLogger is a logging.Logger that also writes warnings and errors
// to the console.
type consoleLogger struct {
	logging.Logger
	console logging.Logger
}

func (l *consoleLogger) Warning(msg string, args ...interface{}) {
	l.console.Warning(msg, args...)
	l.Logger.Warning(msg, args...)
}

func (l *consoleLogger) Error(msg string, args ...interface{}) {
	l.console.Error(msg, args...)
	l.Logger.Error(msg, args...)
}

// newLogger returns a logger writing to a rotated log file at path, and
// writing warnings and errors to console.
func newLogger(path string, level int8, console io.Writer) logging.Logger {
	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	return &consoleLogger{
		Logger:  logging.New(level, fileLog, logSuppress),
		console: logging.New(logging.Warning, console, logSuppress),
	}
}
