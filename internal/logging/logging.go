// Package logging configures the logrus logger used by the binaries.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Setup returns a logger writing to stderr and, when file is set, to that
// file as well. format is "text" or "json".
func Setup(level, format, file string) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid log level")
	}
	logger.SetLevel(lvl)

	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, errors.Errorf("invalid log format %q", format)
	}

	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open log file")
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, f))
		closer = f
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
