// Package ui provides colored terminal output for the CLI.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	primaryColor = color.New(color.FgCyan, color.Bold)
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	successColor.Printf("✓ "+format+"\n", args...)
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	errorColor.Printf("✗ "+format+"\n", args...)
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	warningColor.Printf("⚠ "+format+"\n", args...)
}

// Info prints an informational message
func Info(format string, args ...interface{}) {
	infoColor.Printf(format+"\n", args...)
}

// Primary prints a highlighted message
func Primary(format string, args ...interface{}) {
	primaryColor.Printf(format+"\n", args...)
}

// Plain prints an uncolored message
func Plain(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
