// Package log backs the library's internal diagnostic output. The teacher
// repo logs ad hoc with fmt.Printf (highlevel/server.go's LoggingMiddleware,
// MetricsMiddleware); this generalizes that into a structured logger so
// log_message/log_access host callbacks (spec §6) have something real behind
// them regardless of whether the host supplies its own callback.
//
// Author: momentics <momentics@gmail.com>
package log

import (
	"go.uber.org/zap"
)

// Logger wraps *zap.Logger with the handful of call sites the core needs.
type Logger struct {
	z *zap.Logger
}

// New builds a production-style structured logger. If dev is true, a more
// verbose, human-readable development config is used instead.
func New(dev bool) *Logger {
	var z *zap.Logger
	var err error
	if dev {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Nop returns a logger that discards everything, used when a host never
// asks for logging.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) Sync() { _ = l.z.Sync() }

func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }

// Access emits one structured line per completed request/session, backing
// the log_access callback slot (spec §6). connID correlates every access
// line for one connection across a keep-alive session's pipelined requests.
func (l *Logger) Access(connID, method, uri string, status int, bytes int64, remote string) {
	l.z.Info("access",
		zap.String("conn_id", connID),
		zap.String("method", method),
		zap.String("uri", uri),
		zap.Int("status", status),
		zap.Int64("bytes", bytes),
		zap.String("remote", remote),
	)
}
