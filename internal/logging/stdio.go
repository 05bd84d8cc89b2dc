package logging

import (
	"log/slog"
)

// SetupServeMode installs a default logger that writes only to the
// rotating file at DefaultLogPath, never to stdout or stderr. The CLI
// does not call it: every subcommand, serve included, logs to stderr
// through NewCLILogger.
func SetupServeMode(level string) (func(), error) {
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)

	slog.Info("serve-mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
