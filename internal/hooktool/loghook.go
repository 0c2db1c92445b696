package hooktool

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogHook forwards logrus entries to juju-log so they end up in the unit log.
type LogHook struct {
	tools   *Tools
	levels  []log.Level
	timeout time.Duration
}

// NewLogHook forwards every entry at min or more severe.
func NewLogHook(tools *Tools, min log.Level) *LogHook {
	var levels []log.Level
	for _, l := range log.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}
	return &LogHook{tools: tools, levels: levels, timeout: 5 * time.Second}
}

func (h *LogHook) Levels() []log.Level {
	return h.levels
}

func (h *LogHook) Fire(entry *log.Entry) error {
	msg, err := entry.String()
	if err != nil {
		return err
	}
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.tools.Log(ctx, strings.TrimRight(msg, "\n"), jujuLevel(entry.Level))
}

func jujuLevel(l log.Level) string {
	switch l {
	case log.PanicLevel, log.FatalLevel:
		return LevelCritical
	case log.ErrorLevel:
		return LevelError
	case log.WarnLevel:
		return LevelWarning
	case log.InfoLevel:
		return LevelInfo
	default:
		return LevelDebug
	}
}
