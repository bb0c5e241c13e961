package utils

import (
	"go.uber.org/zap"
)

// NewLogger returns a production logger, or a development one in debug mode.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
