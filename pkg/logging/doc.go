// Package logging configures the structured loggers used by contractd.
//
// It wraps log/slog. The matching engine itself never logs; the stub and the
// command line tool take a *slog.Logger and fall back to Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Warn("stub request failed", logging.ErrorAttrs(err)...)
//
// MultiHandler fans records out to several handlers, e.g. text on stderr and
// JSON into a log file.
package logging
