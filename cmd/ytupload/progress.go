/*
DESCRIPTION
  progress.go provides a terminal progress bar for uploads.

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
	"io"

	"github.com/cheggaaa/pb/v3"
)

const barTemplate pb.ProgressBarTemplate = `{{string . "prefix"}}{{counters . }} chunks {{bar . }} {{percent . }} {{etime . }}`

// progressBar shows upload progress in chunks. It implements
// upload.ProgressSink.
type progressBar struct {
	bar     *pb.ProgressBar
	started bool
	done    bool
}

func newProgressBar(w io.Writer) *progressBar {
	bar := barTemplate.New(0)
	bar.SetWriter(w)
	bar.Set("prefix", "Uploading ")
	return &progressBar{bar: bar}
}

// Progress implements upload.ProgressSink.
func (p *progressBar) Progress(done, total int) {
	if p.done {
		return
	}
	if !p.started {
		p.bar.SetTotal(int64(total))
		p.bar.Start()
		p.started = true
	}
	p.bar.SetCurrent(int64(done))
	if done == total {
		p.finish()
	}
}

// finish stops the bar if the upload ended early.
func (p *progressBar) finish() {
	if p.started && !p.done {
		p.bar.Finish()
		p.done = true
	}
}
