package domain

import "errors"

// Channel errors - 通道層錯誤
var (
	// ErrChannelClosed indicates the administrative channel is no longer usable
	ErrChannelClosed = errors.New("channel closed")

	// ErrCommandTimeout indicates a command did not complete within its timeout
	ErrCommandTimeout = errors.New("command timed out")

	// ErrCommandFailed indicates the device rejected a command
	ErrCommandFailed = errors.New("command failed")

	// ErrConfigWriteFailed indicates a configuration directive was rejected
	ErrConfigWriteFailed = errors.New("configuration write failed")

	// ErrPrivilegeDenied indicates privilege escalation was refused
	ErrPrivilegeDenied = errors.New("privilege escalation denied")
)

// Transfer errors - 傳輸層錯誤
var (
	// ErrTransport indicates a bulk-copy channel failure mid-operation.
	// Fatal for the current run; never retried by the core.
	ErrTransport = errors.New("transport failure")

	// ErrInvalidDirection indicates an unknown transfer direction
	ErrInvalidDirection = errors.New("invalid transfer direction")

	// ErrTransferInProgress indicates another transfer holds the target lock
	ErrTransferInProgress = errors.New("transfer already in progress")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)
