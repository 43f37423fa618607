/*
 *  Copyright (c) Huawei Technologies Co., Ltd. 2022-2023. All rights reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package log provides the process logger and per-request contextual logging.
package log

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type key string

const (
	requestIDKey   key = "replication.requestid"
	requestIDField     = "requestID"

	timestampFormat = "2006-01-02 15:04:05.000000"
)

// Logger exposes logging functionality to callers holding a context scope.
type Logger interface {
	Debugf(format string, args ...interface{})
	Debugln(args ...interface{})
	Infof(format string, args ...interface{})
	Infoln(args ...interface{})
	Warningf(format string, args ...interface{})
	Warningln(args ...interface{})
	Errorf(format string, args ...interface{})
	Errorln(args ...interface{})
}

var logger = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: timestampFormat,
		FullTimestamp:   true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init configures the process logger level. An unknown level is an error and
// leaves the current level untouched.
func Init(logLevel string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %v", logLevel, err)
	}

	logger.SetLevel(level)
	return nil
}

type contextLogger struct {
	entry *logrus.Entry
}

func (l *contextLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *contextLogger) Debugln(args ...interface{}) {
	l.entry.Debugln(args...)
}

func (l *contextLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *contextLogger) Infoln(args ...interface{}) {
	l.entry.Infoln(args...)
}

func (l *contextLogger) Warningf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *contextLogger) Warningln(args ...interface{}) {
	l.entry.Warnln(args...)
}

func (l *contextLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *contextLogger) Errorln(args ...interface{}) {
	l.entry.Errorln(args...)
}

// EnsureRequestID returns a context carrying a request ID, generating one
// when the incoming context has none. Every external entry point calls this
// once so that all logs of one volume operation share an ID.
func EnsureRequestID(ctx context.Context) context.Context {
	if _, ok := ctx.Value(requestIDKey).(string); ok {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, uuid.New().String())
}

// AddContext appends the request scoped fields to log output.
func AddContext(ctx context.Context) Logger {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return &contextLogger{entry: logger.WithField(requestIDField, id)}
	}
	return &contextLogger{entry: logrus.NewEntry(logger)}
}

// Debugf logs without request context.
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Infof logs without request context.
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warningf logs without request context.
func Warningf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Errorf logs without request context.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
