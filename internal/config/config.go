package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Autosave   AutosaveConfig   `mapstructure:"autosave"`
	SRS        SRSConfig        `mapstructure:"srs"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// AutosaveConfig tunes the note draft autosave coordinator.
type AutosaveConfig struct {
	// DebounceMilliseconds is the quiet period after the last edit before
	// an automatic save fires.
	DebounceMilliseconds int `mapstructure:"debounce_milliseconds" validate:"gte=0"`

	// SaveOnChange persists every dirty edit immediately instead of
	// debouncing.
	SaveOnChange bool `mapstructure:"save_on_change"`
}

// SRSConfig overrides the spaced-repetition scheduling parameters.
// Zero-valued fields keep the algorithm defaults.
type SRSConfig struct {
	MinEaseFactor             float64 `mapstructure:"min_ease_factor"              validate:"gte=0"`
	MaxEaseFactor             float64 `mapstructure:"max_ease_factor"              validate:"gte=0"`
	CorrectEaseBonus          float64 `mapstructure:"correct_ease_bonus"           validate:"gte=0"`
	WrongEasePenalty          float64 `mapstructure:"wrong_ease_penalty"           validate:"gte=0"`
	FirstCorrectIntervalDays  int     `mapstructure:"first_correct_interval_days"  validate:"gte=0"`
	SecondCorrectIntervalDays int     `mapstructure:"second_correct_interval_days" validate:"gte=0"`
	LapseIntervalDays         int     `mapstructure:"lapse_interval_days"          validate:"gte=0"`
}

// GenerationConfig contains settings for LLM-backed notecard generation.
// Generation is optional; an empty API key disables the feature.
type GenerationConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
}
