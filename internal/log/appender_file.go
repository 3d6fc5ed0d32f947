package log

import (
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AddFileAppender attaches a size-rotated log file.
func (m *MultiWriter) AddFileAppender(fc FileConfig) (*MultiWriter, error) {
	if fc.Path == "" {
		return m, fmt.Errorf("file appender requires 'path'")
	}
	writer := &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.Rotation.MaxSizeMB,  // megabytes
		MaxBackups: fc.Rotation.MaxBackups, // number of backups
		MaxAge:     fc.Rotation.MaxAgeDays, // days
		Compress:   fc.Rotation.Compress,   // compress the backups
	}
	m.writers = append(m.writers, writer)
	return m, nil
}
