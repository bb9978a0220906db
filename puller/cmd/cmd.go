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
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/uber/modelpull/lib/cancellation"
	"github.com/uber/modelpull/lib/fetcher"
	"github.com/uber/modelpull/lib/progress"
	"github.com/uber/modelpull/lib/puller"
	"github.com/uber/modelpull/lib/registry"
	"github.com/uber/modelpull/lib/store"
	"github.com/uber/modelpull/metrics"
	"github.com/uber/modelpull/utils/configutil"
	"github.com/uber/modelpull/utils/log"
)

type options struct {
	config       *Config
	metrics      tally.Scope
	logger       *zap.Logger
	out          io.Writer
	sink         progress.Sink
	cancellation []cancellation.Option
}

// Option defines an optional Run parameter.
type Option func(*options)

// WithConfig ignores the config flag and directly uses the provided config
// struct.
func WithConfig(c Config) Option {
	return func(o *options) { o.config = &c }
}

// WithMetrics ignores metrics config and directly uses the provided tally scope.
func WithMetrics(s tally.Scope) Option {
	return func(o *options) { o.metrics = s }
}

// WithLogger ignores logging config and directly uses the provided logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where command results are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithProgressSink sets how download progress is displayed. Defaults to a
// progress bar on stderr.
func WithProgressSink(s progress.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithCancellationOptions passes opts to the cancellation Coordinator.
func WithCancellationOptions(opts ...cancellation.Option) Option {
	return func(o *options) { o.cancellation = append(o.cancellation, opts...) }
}

// app holds what every command needs once configuration is loaded.
type app struct {
	config      Config
	stats       tally.Scope
	out         io.Writer
	sink        progress.Sink
	registry    *registry.Client
	coordinator *cancellation.Coordinator
	closers     []func()
}

func newApp(configFile string, o options) (*app, error) {
	var config Config
	if o.config != nil {
		config = *o.config
	} else if configFile != "" {
		if err := configutil.Load(configFile, &config); err != nil {
			return nil, fmt.Errorf("load config: %s", err)
		}
	}

	a := &app{config: config, out: o.out, sink: o.sink}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.sink == nil {
		a.sink = progress.NewTerminalSink(os.Stderr)
	}

	if o.logger != nil {
		log.SetGlobalLogger(o.logger.Sugar())
	} else {
		zlog, err := log.ConfigureLogger(config.ZapLogging)
		if err != nil {
			return nil, fmt.Errorf("configure logger: %s", err)
		}
		a.closers = append(a.closers, func() { zlog.Sync() })
	}

	a.stats = o.metrics
	if a.stats == nil {
		s, closer, err := metrics.New(config.Metrics)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init metrics: %s", err)
		}
		a.stats = s
		a.closers = append(a.closers, func() { closer.Close() })
	}

	a.registry = registry.NewClient(config.Registry)

	a.coordinator = cancellation.New(config.Cancellation, o.cancellation...)
	a.coordinator.Start()
	a.closers = append(a.closers, a.coordinator.Stop)

	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) pull(ctx context.Context, source registry.Source, identifier string) error {
	ref, err := source.Parse(identifier)
	if err != nil {
		a.coordinator.SetCleanupDone()
		return err
	}
	cas, err := store.NewCAStore(a.config.Store, a.stats)
	if err != nil {
		a.coordinator.SetCleanupDone()
		return fmt.Errorf("store: %s", err)
	}
	f, err := fetcher.New(
		a.config.Fetcher, a.registry.HTTPClient(), a.sink, a.coordinator, a.stats)
	if err != nil {
		a.coordinator.SetCleanupDone()
		return fmt.Errorf("fetcher: %s", err)
	}
	p := puller.New(a.config.Puller, a.registry, f, cas, a.coordinator, a.stats)

	fmt.Fprintf(a.out, "Downloading %s into %s\n", ref, cas.Root())
	if err := p.Pull(ctx, source, ref); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Model %s download completed successfully\n", ref)
	return nil
}

// list runs a listing command. Listings leave nothing to roll back, so a
// confirmed signal may exit at once.
func (a *app) list(header string, f func() ([]string, error)) error {
	a.coordinator.SetCleanupDone()
	items, err := f()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%d):\n", header, len(items))
	if len(items) > 0 {
		fmt.Fprintln(a.out, strings.Join(items, "\n"))
	}
	return nil
}

func (a *app) showConfig() error {
	a.coordinator.SetCleanupDone()
	b, err := yaml.Marshal(a.config)
	if err != nil {
		return fmt.Errorf("marshal config: %s", err)
	}
	_, err = a.out.Write(b)
	return err
}
