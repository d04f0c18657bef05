package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Logger is a key/value wrapper around zap. Credentials never reach the
// output and user ids are written as short hashes.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a production JSON logger for "prod"/"production" and a console logger otherwise.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.SugaredLogger.Debugw(msg, scrub(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.SugaredLogger.Infow(msg, scrub(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.SugaredLogger.Warnw(msg, scrub(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.SugaredLogger.Errorw(msg, scrub(kv)...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.SugaredLogger.Fatalw(msg, scrub(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(kv)...)}
}

// secretKeys are matched against the lower-cased key.
var secretKeys = []string{"token", "authorization", "password", "api_key", "secret", "email"}

const redacted = "[REDACTED]"

// scrub rewrites values in a key/value list. A trailing key without a value
// is passed through for zap to report.
func scrub(kv []interface{}) []interface{} {
	if len(kv) < 2 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		out[i+1] = scrubValue(strings.ToLower(key), out[i+1])
	}
	return out
}

func scrubValue(key string, val interface{}) interface{} {
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return redacted
		}
	}
	if key == "user_id" {
		return hashID(val)
	}
	if s, ok := val.(string); ok && isBearerLike(s) {
		return redacted
	}
	return val
}

// hashID keeps user ids correlatable across lines without printing them.
func hashID(val interface{}) string {
	raw := fmt.Sprint(val)
	if val == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return "user:" + hex.EncodeToString(sum[:6])
}

// isBearerLike spots JWTs and "Bearer ..." header values.
func isBearerLike(s string) bool {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return true
	}
	parts := strings.Split(s, ".")
	return len(parts) == 3 && strings.HasPrefix(parts[0], "eyJ") && len(parts[1]) > 10
}
