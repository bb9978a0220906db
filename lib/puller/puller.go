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
// Package puller runs pull sessions: it fetches a manifest and every blob it
// references, verifies and commits the blobs in declared order, then writes
// the manifest. A failed session removes what it created.
package puller

import (
	"context"
	"fmt"
	"os"

	"github.com/satori/go.uuid"
	"github.com/uber-go/tally"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/lib/manifest"
	"github.com/uber/modelpull/lib/pullerrors"
	"github.com/uber/modelpull/lib/registry"
	"github.com/uber/modelpull/lib/store"
	"github.com/uber/modelpull/utils/diskspaceutil"
	"github.com/uber/modelpull/utils/log"
	"github.com/uber/modelpull/utils/memsize"
)

// RegistryClient fetches manifests and checks the local model server.
type RegistryClient interface {
	FetchManifest(ctx context.Context, url string) ([]byte, error)
	IsPresent(ctx context.Context, names []string) (bool, error)
}

// BlobFetcher downloads blobs into staging.
type BlobFetcher interface {
	Download(ctx context.Context, url string, named core.Digest, ledger *store.Ledger) (*store.StagedBlob, error)
}

// Checkpoint exposes the cancellation state to the session.
type Checkpoint interface {
	Interrupted() bool
	InterruptRequested() bool
	ConfirmPending() bool
	SetCleanupDone()
}

// Puller runs pull sessions against a CAStore.
type Puller struct {
	config     Config
	registry   RegistryClient
	fetcher    BlobFetcher
	store      *store.CAStore
	checkpoint Checkpoint
	stats      tally.Scope

	usage func(path string) (diskspaceutil.DiskSpaceUsage, error)
}

// New creates a new Puller.
func New(
	config Config,
	registry RegistryClient,
	fetcher BlobFetcher,
	cas *store.CAStore,
	checkpoint Checkpoint,
	stats tally.Scope) *Puller {

	stats = stats.Tagged(map[string]string{
		"module": "puller",
	})
	return &Puller{
		config:     config,
		registry:   registry,
		fetcher:    fetcher,
		store:      cas,
		checkpoint: checkpoint,
		stats:      stats,
		usage:      diskspaceutil.Usage,
	}
}

// Pull downloads ref from source into the store. On failure the session's
// side effects are rolled back according to the error kind, and the error is
// returned. Once Pull returns, the checkpoint is told cleanup is done.
func (p *Puller) Pull(ctx context.Context, source registry.Source, ref registry.Reference) error {
	s := &session{
		id:     uuid.NewV4().String(),
		ref:    ref,
		source: source,
		ledger: store.NewLedger(),
	}
	s.log = log.With("session", s.id, "model", ref.String())
	defer p.checkpoint.SetCleanupDone()

	timer := p.stats.Timer("pull").Start()
	err := p.run(ctx, s)
	if err == nil {
		timer.Stop()
		s.ledger.Clear()
		p.stats.Counter("sessions_succeeded").Inc(1)
		s.log.Infof("Pulled %s", ref)
		return nil
	}

	kind := pullerrors.KindOf(err)
	p.stats.Tagged(map[string]string{"kind": kind.String()}).Counter("sessions_failed").Inc(1)
	if kind == pullerrors.KindDigestMismatch {
		p.stats.Counter("digest_mismatches").Inc(1)
	}

	if pullerrors.ShouldRollback(err, !p.config.KeepOnError) {
		s.log.Infof("Rolling back %d path(s) after %s error: %s", s.ledger.Len(), kind, err)
		if rerr := s.ledger.Rollback(); rerr != nil {
			s.log.Errorf("Rollback incomplete: %s", rerr)
		}
		p.stats.Counter("rollbacks").Inc(1)
	} else {
		s.log.Warnf("Keeping %d downloaded path(s) after %s error: %s", s.ledger.Len(), kind, err)
	}
	return err
}

func (p *Puller) run(ctx context.Context, s *session) error {
	if err := p.check(); err != nil {
		return err
	}
	raw, err := p.registry.FetchManifest(ctx, s.source.ManifestURL(s.ref))
	if err != nil {
		return err
	}
	if err := p.check(); err != nil {
		return err
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		return err
	}

	blobs := m.Blobs()
	s.log.Infof("Manifest %s references %d blob(s), %s in total",
		m.Digest(), len(blobs), memsize.Format(uint64(m.TotalSize())))
	if !p.config.SkipDiskSpaceCheck {
		if err := p.checkSpace(blobs); err != nil {
			return err
		}
	}
	for i, e := range blobs {
		if err := p.check(); err != nil {
			return err
		}
		s.log.Debugf("Fetching blob %d/%d %s", i+1, len(blobs), e.Digest)
		staged, err := p.fetcher.Download(ctx, s.source.BlobURL(s.ref, e.Digest), e.Digest, s.ledger)
		if err != nil {
			return err
		}
		if err := p.check(); err != nil {
			return err
		}
		path, err := p.store.SaveBlob(staged, e.Digest, s.ledger)
		if err != nil {
			return err
		}
		p.stats.Counter("blobs_committed").Inc(1)
		s.log.Debugf("Committed blob %s", path)
	}

	if err := p.check(); err != nil {
		return err
	}
	dir := p.store.ManifestDir(s.source.ManifestPath(s.ref)...)
	path, err := p.store.SaveManifest(m.Raw(), dir, s.ref.Tag, s.ledger)
	if err != nil {
		return err
	}
	s.log.Debugf("Wrote manifest %s", path)

	if p.config.SkipPresenceCheck {
		return nil
	}
	names := s.source.PresenceNames(s.ref)
	present, err := p.registry.IsPresent(ctx, names)
	if err != nil {
		return &pullerrors.PresenceCheckError{Names: names, Err: err}
	}
	if !present {
		return &pullerrors.PresenceCheckError{Names: names}
	}
	return nil
}

// checkSpace fails if the store's file system cannot hold the blobs which are
// not already in the store.
func (p *Puller) checkSpace(blobs []manifest.Entry) error {
	var need uint64
	for _, e := range blobs {
		if _, err := os.Stat(p.store.BlobPath(e.Digest)); err == nil {
			continue
		}
		need += uint64(e.Size)
	}
	if need == 0 {
		return nil
	}
	u, err := p.usage(p.store.Root())
	if err == diskspaceutil.ErrUnsupported {
		log.Debugf("Skipping disk space check: %s", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("disk space check: %s", err)
	}
	if u.FreeBytes < need {
		return &InsufficientSpaceError{Path: p.store.Root(), Need: need, Free: u.FreeBytes}
	}
	return nil
}

// check is the cancellation checkpoint between session steps. A signal
// deferred by the last transfer is confirmed here.
func (p *Puller) check() error {
	if p.checkpoint.Interrupted() {
		return pullerrors.ErrUserCancelled
	}
	if p.checkpoint.InterruptRequested() && p.checkpoint.ConfirmPending() {
		return pullerrors.ErrUserCancelled
	}
	return nil
}
