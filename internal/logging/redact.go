package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Key fragments that mark a field as sensitive.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
}

const redactedValue = "***REDACTED***"

// IsSensitiveKey reports whether a field key suggests a credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// MaskToken keeps the first and last three characters of a token so log
// lines stay correlatable.
func MaskToken(token string) string {
	if len(token) <= 8 {
		if token == "" {
			return ""
		}
		return "***"
	}
	return token[:3] + "..." + token[len(token)-3:]
}

// Redact wraps core so sensitive string fields are replaced before encoding.
func Redact(core zapcore.Core) zapcore.Core {
	return &redactCore{Core: core}
}

type redactCore struct {
	zapcore.Core
}

func (c *redactCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if f.Type != zapcore.StringType || f.String == "" || !IsSensitiveKey(f.Key) {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i].String = redactedValue
	}
	if out == nil {
		return fields
	}
	return out
}
