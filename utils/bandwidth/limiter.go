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
// Package bandwidth caps download throughput with a token bucket.
package bandwidth

import (
	"context"
	"errors"

	"github.com/c2h5oh/datasize"
	"golang.org/x/time/rate"

	"github.com/uber/modelpull/utils/log"
	"github.com/uber/modelpull/utils/memsize"
)

// Config defines Limiter configuration.
type Config struct {
	IngressBytesPerSec datasize.ByteSize `yaml:"ingress_bytes_per_sec"`

	// TokenSize is the number of bytes one token in the bucket stands for,
	// which keeps token counts within int range for large limits.
	TokenSize datasize.ByteSize `yaml:"token_size"`

	Enable bool `yaml:"enable"`
}

func (c Config) applyDefaults() Config {
	if c.TokenSize == 0 {
		c.TokenSize = 1 * datasize.KB
	}
	return c
}

// Limiter limits ingress bandwidth. A disabled Limiter never blocks.
type Limiter struct {
	config  Config
	ingress *rate.Limiter
}

// NewLimiter creates a new Limiter.
func NewLimiter(config Config) (*Limiter, error) {
	config = config.applyDefaults()

	l := &Limiter{config: config}
	if !config.Enable {
		return l, nil
	}
	if config.IngressBytesPerSec == 0 {
		return nil, errors.New("invalid config: ingress_bytes_per_sec must be non-zero")
	}
	tps := config.IngressBytesPerSec.Bytes() / config.TokenSize.Bytes()
	if tps == 0 {
		return nil, errors.New("invalid config: token_size exceeds ingress_bytes_per_sec")
	}

	log.Infof("Setting ingress bandwidth to %s/sec", memsize.Format(config.IngressBytesPerSec.Bytes()))

	l.ingress = rate.NewLimiter(rate.Limit(tps), int(tps))
	return l, nil
}

// ReserveIngress blocks until ingress bandwidth for nbytes is available or
// ctx is done. Reservations larger than one second of bandwidth are split.
func (l *Limiter) ReserveIngress(ctx context.Context, nbytes int64) error {
	if l.ingress == nil || nbytes <= 0 {
		return nil
	}
	size := int64(l.config.TokenSize.Bytes())
	tokens := int((nbytes + size - 1) / size)
	for tokens > 0 {
		n := tokens
		if b := l.ingress.Burst(); n > b {
			n = b
		}
		if err := l.ingress.WaitN(ctx, n); err != nil {
			return err
		}
		tokens -= n
	}
	return nil
}

// IngressLimit returns the ingress limit in bytes per second, or zero if the
// Limiter is disabled.
func (l *Limiter) IngressLimit() int64 {
	if l.ingress == nil {
		return 0
	}
	return int64(l.ingress.Limit()) * int64(l.config.TokenSize.Bytes())
}
