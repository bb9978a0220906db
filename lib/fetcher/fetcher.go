// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package fetcher streams remote blobs into the staging area while hashing
// them, honoring cooperative cancellation between chunks.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/uber-go/tally"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/lib/progress"
	"github.com/uber/modelpull/lib/pullerrors"
	"github.com/uber/modelpull/lib/store"
	"github.com/uber/modelpull/utils/bandwidth"
	"github.com/uber/modelpull/utils/httputil"
	"github.com/uber/modelpull/utils/log"
)

// Checkpoint is consulted before a transfer and after every chunk.
type Checkpoint interface {
	// Interrupted returns true once the user has confirmed cancellation.
	Interrupted() bool

	// InterruptRequested returns true if a signal arrived while a progress
	// display was active and still awaits confirmation.
	InterruptRequested() bool

	// ConfirmPending asks the user to confirm the pending signal and returns
	// true if cancellation was confirmed.
	ConfirmPending() bool

	// SetProgressActive marks whether a progress display owns the terminal.
	SetProgressActive(active bool)
}

// Fetcher downloads blobs into a StagingArea.
type Fetcher struct {
	config     Config
	client     *http.Client
	staging    *store.StagingArea
	sink       progress.Sink
	checkpoint Checkpoint
	limiter    *bandwidth.Limiter
	stats      tally.Scope
}

// New creates a new Fetcher.
func New(
	config Config,
	client *http.Client,
	sink progress.Sink,
	checkpoint Checkpoint,
	stats tally.Scope) (*Fetcher, error) {

	config = config.applyDefaults()

	staging, err := store.NewStagingArea(config.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("staging area: %s", err)
	}

	limiter, err := bandwidth.NewLimiter(config.Bandwidth)
	if err != nil {
		return nil, fmt.Errorf("bandwidth limiter: %s", err)
	}

	stats = stats.Tagged(map[string]string{
		"module": "fetcher",
	})

	return &Fetcher{
		config:     config,
		client:     client,
		staging:    staging,
		sink:       sink,
		checkpoint: checkpoint,
		limiter:    limiter,
		stats:      stats,
	}, nil
}

// StagingArea returns the staging area downloads are written to.
func (f *Fetcher) StagingArea() *store.StagingArea {
	return f.staging
}

// Download streams the blob at url into a new staging file, tracked in ledger
// before any byte is written. The returned StagedBlob carries both the named
// digest and the digest computed over the received bytes; comparing them is
// left to the commit. Returns pullerrors.ErrUserCancelled if cancellation is
// observed at any checkpoint, in which case the partial file stays in ledger
// for rollback. On any other error the partial file is discarded.
func (f *Fetcher) Download(
	ctx context.Context, url string, named core.Digest, ledger *store.Ledger) (_ *store.StagedBlob, err error) {

	if f.cancelled() {
		return nil, pullerrors.ErrUserCancelled
	}

	file, err := f.staging.Create(ledger)
	if err != nil {
		return nil, err
	}
	defer func() {
		file.Close()
		if err == nil || pullerrors.IsUserCancelled(err) {
			return
		}
		if derr := f.staging.Discard(file.Name(), ledger); derr != nil {
			log.Warnf("Error discarding staging file %s: %s", file.Name(), derr)
		}
	}()

	resp, err := httputil.Get(url, httputil.SendClient(f.client), httputil.SendContext(ctx))
	if err != nil {
		return nil, pullerrors.FromHTTP(url, err)
	}
	defer resp.Body.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	f.checkpoint.SetProgressActive(true)
	defer f.checkpoint.SetProgressActive(false)

	timer := f.stats.Timer("download").Start()
	f.sink.Start(named.BlobName(), total)

	sofar, digest, err := f.stream(ctx, url, resp.Body, file, total)
	if err != nil {
		f.sink.Abort()
		if pullerrors.IsUserCancelled(err) {
			f.stats.Counter("download_cancelled").Inc(1)
			log.Infof("Download of %s cancelled after %d bytes", named, sofar)
		}
		return nil, err
	}
	if err := file.Close(); err != nil {
		f.sink.Abort()
		return nil, fmt.Errorf("close staging file: %s", err)
	}
	f.sink.Finish()
	timer.Stop()
	f.stats.Counter("blob_downloads").Inc(1)

	return &store.StagedBlob{
		Path:     file.Name(),
		Named:    named,
		Computed: digest,
		Size:     sofar,
	}, nil
}

// stream copies body into w chunk by chunk, feeding a Digester and the
// progress sink, and consulting the checkpoint after every chunk, the last one
// included.
func (f *Fetcher) stream(
	ctx context.Context, url string, body io.Reader, w *os.File, total int64) (int64, core.Digest, error) {

	digester := core.NewDigester()
	buf := make([]byte, int(f.config.ChunkSize.Bytes()))
	var sofar int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if err := f.limiter.ReserveIngress(ctx, int64(n)); err != nil {
				return sofar, core.Digest{}, err
			}
			digester.Feed(buf[:n])
			if _, err := w.Write(buf[:n]); err != nil {
				return sofar, core.Digest{}, fmt.Errorf("write staging file: %s", err)
			}
			sofar += int64(n)
			f.sink.Update(total, sofar)
			f.stats.Counter("bytes_downloaded").Inc(int64(n))
		}
		if rerr != nil && rerr != io.EOF {
			return sofar, core.Digest{}, &pullerrors.NetworkError{URL: url, Err: rerr}
		}
		if f.cancelled() {
			return sofar, core.Digest{}, pullerrors.ErrUserCancelled
		}
		if rerr == io.EOF {
			break
		}
	}
	return sofar, digester.Digest(), nil
}

// cancelled returns true if the transfer must stop. A signal deferred while
// the progress display was active gets confirmed here, with the display
// suspended so the prompt does not collide with it.
func (f *Fetcher) cancelled() bool {
	if f.checkpoint.Interrupted() {
		return true
	}
	if f.checkpoint.InterruptRequested() {
		return f.sink.Suspend(f.checkpoint.ConfirmPending)
	}
	return false
}
