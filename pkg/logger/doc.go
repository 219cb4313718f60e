// Package logger provides the structured logging interface used across the ripper.
//
// It wraps zerolog behind a small Logger interface so that components can be
// handed a no-op or capturing logger in tests:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("source", "staff")
//	log.InfoWithFields("page fetched", map[string]interface{}{
//	    "start": 50,
//	    "posts": 50,
//	})
//
// Console output goes to stderr. When logging.file is set, entries are also
// appended to that file.
package logger
