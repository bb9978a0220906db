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
package log

// Package log keeps a process-wide sugared zap logger so that packages can log
// without threading a logger through every constructor.

import (
	"go.uber.org/zap"
)

var _default *zap.SugaredLogger

func init() {
	l, err := New(Config{}, nil)
	if err != nil {
		panic(err)
	}
	SetGlobalLogger(l.Sugar())
}

// ConfigureLogger builds a logger from config and installs it as the global
// logger.
func ConfigureLogger(config Config) (*zap.SugaredLogger, error) {
	l, err := New(config, nil)
	if err != nil {
		return nil, err
	}
	SetGlobalLogger(l.Sugar())
	return _default, nil
}

// SetGlobalLogger sets the global logger. The wrapper functions below are
// skipped in caller annotations.
func SetGlobalLogger(l *zap.SugaredLogger) {
	_default = l.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Default returns the global logger.
func Default() *zap.SugaredLogger {
	return _default
}

// With adds structured context to the global logger.
func With(args ...interface{}) *zap.SugaredLogger {
	return _default.Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(args...)
}

// Debugf uses fmt.Sprintf to log a templated message.
func Debugf(template string, args ...interface{}) {
	_default.Debugf(template, args...)
}

// Infof uses fmt.Sprintf to log a templated message.
func Infof(template string, args ...interface{}) {
	_default.Infof(template, args...)
}

// Warnf uses fmt.Sprintf to log a templated message.
func Warnf(template string, args ...interface{}) {
	_default.Warnf(template, args...)
}

// Errorf uses fmt.Sprintf to log a templated message.
func Errorf(template string, args ...interface{}) {
	_default.Errorf(template, args...)
}

// Fatalf uses fmt.Sprintf to log a templated message, then calls os.Exit.
func Fatalf(template string, args ...interface{}) {
	_default.Fatalf(template, args...)
}

// Info uses fmt.Sprint to construct and log a message.
func Info(args ...interface{}) {
	_default.Info(args...)
}

// Warn uses fmt.Sprint to construct and log a message.
func Warn(args ...interface{}) {
	_default.Warn(args...)
}

// Error uses fmt.Sprint to construct and log a message.
func Error(args ...interface{}) {
	_default.Error(args...)
}
