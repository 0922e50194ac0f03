package utils

import "go.uber.org/zap"

// NewLogger returns a development logger for ENV=dev and a production logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "dev" || env == "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
