package app

import "time"

// SuggestRequest is the input for a suggestion pass.
type SuggestRequest struct {
	Brand string
	// MinConfidence overrides the configured threshold when set.
	MinConfidence *float64
}

// ForecastRequest is the input for GetForecast.
type ForecastRequest struct {
	Brand       string
	HorizonDays int       // zero means the configured horizon
	AsOf        time.Time // zero means today
}
