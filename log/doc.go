/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package log provides structured logging on top of github.com/ssgreg/logf.
// Loggers are configured with Config (level, format, output, file rotation via lumberjack)
// which can be loaded by config.Loader like any other configuration object.
package log
