package srs

import "github.com/noteleaf/noteleaf-api/internal/domain"

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Ease factor limits. The lower bound prevents interval collapse and
	// thrashing after a span of wrong answers; the upper bound prevents
	// runaway interval growth.
	MinEaseFactor float64
	MaxEaseFactor float64

	// Ease factor deltas applied per outcome.
	CorrectEaseBonus float64
	WrongEasePenalty float64

	// Bootstrap intervals for the first and second consecutive correct
	// answers. The multiplicative formula only takes over afterwards;
	// starting it from the defaults would collapse early intervals to
	// near-zero.
	FirstCorrectIntervalDays  int
	SecondCorrectIntervalDays int

	// Interval after a wrong answer.
	LapseIntervalDays int
}

// ParamsConfig allows overriding the defaults when creating a Params instance.
// Zero-valued fields keep the default.
type ParamsConfig struct {
	MinEaseFactor             float64
	MaxEaseFactor             float64
	CorrectEaseBonus          float64
	WrongEasePenalty          float64
	FirstCorrectIntervalDays  int
	SecondCorrectIntervalDays int
	LapseIntervalDays         int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:             domain.MinEaseFactor,
		MaxEaseFactor:             domain.MaxEaseFactor,
		CorrectEaseBonus:          0.1,
		WrongEasePenalty:          0.2,
		FirstCorrectIntervalDays:  1,
		SecondCorrectIntervalDays: 6,
		LapseIntervalDays:         1,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}
	if config.CorrectEaseBonus > 0 {
		params.CorrectEaseBonus = config.CorrectEaseBonus
	}
	if config.WrongEasePenalty > 0 {
		params.WrongEasePenalty = config.WrongEasePenalty
	}
	if config.FirstCorrectIntervalDays > 0 {
		params.FirstCorrectIntervalDays = config.FirstCorrectIntervalDays
	}
	if config.SecondCorrectIntervalDays > 0 {
		params.SecondCorrectIntervalDays = config.SecondCorrectIntervalDays
	}
	if config.LapseIntervalDays > 0 {
		params.LapseIntervalDays = config.LapseIntervalDays
	}

	return params
}
