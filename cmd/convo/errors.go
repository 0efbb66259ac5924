package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/elee1766/convo/src/config"
	"github.com/elee1766/convo/src/conversation"
	"github.com/elee1766/convo/src/llmclient"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitNetwork     = 6 // Network error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
	ExitCorrupt     = 9 // Unreadable conversation file
)

// errInterrupted ends a chat that was stopped by a signal after its final
// save. It is reported through the exit code only.
var errInterrupted = errors.New("interrupted")

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError handles an error and exits with the appropriate code
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := exitCode(err)
	if exitCode != ExitInterrupted {
		h.logger.Debug("command failed", "error", err, "exit_code", exitCode)
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	}

	os.Exit(exitCode)
}

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var (
		corrupt    *conversation.CorruptStateError
		validation config.ValidationError
		apiErr     *llmclient.APIError
		netErr     net.Error
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errInterrupted):
		return ExitInterrupted
	case errors.As(err, &corrupt):
		return ExitCorrupt
	case errors.As(err, &validation), errors.Is(err, config.ErrNoPreamble):
		return ExitConfig
	case errors.Is(err, conversation.ErrInvalidID):
		return ExitUsage
	case errors.As(err, &apiErr):
		if apiErr.IsAuthError() {
			return ExitAuth
		}
		return ExitError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ExitTimeout
		}
		return ExitNetwork
	default:
		return ExitError
	}
}
