// Package logging provides a simple leveled logging interface for the
// photo library application.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable and
// may be overridden at runtime with SetLevel (the -v CLI flag does this).
package logging
