package types

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PipelineConfig carries the system-wide knobs of the matching pipeline.
// Loaded once at startup and passed into services by constructor.
type PipelineConfig struct {
	// MatchThreshold decides "is this media a protected identity".
	MatchThreshold float64
	// DuplicateThreshold decides "is this a re-registration". Must be
	// >= MatchThreshold: false positives here block legitimate
	// registrations.
	DuplicateThreshold float64
	// LivenessThreshold is the minimum detection confidence accepted at
	// registration.
	LivenessThreshold float64
	// MaxFacesPerRequest caps per-request embedding extraction cost.
	MaxFacesPerRequest int
	// MatchCandidates is how many neighbors the engine fetches to apply
	// the deterministic tie-break over.
	MatchCandidates int

	VerifyTimeout        time.Duration
	LicenseLookupTimeout time.Duration
	RegistrationLockTTL  time.Duration
	LockAcquireTimeout   time.Duration
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MatchThreshold:       0.70,
		DuplicateThreshold:   0.85,
		LivenessThreshold:    0.70,
		MaxFacesPerRequest:   5,
		MatchCandidates:      5,
		VerifyTimeout:        10 * time.Second,
		LicenseLookupTimeout: 2 * time.Second,
		RegistrationLockTTL:  10 * time.Second,
		LockAcquireTimeout:   2 * time.Second,
	}
}

// LoadPipelineConfig reads overrides from the environment on top of the
// defaults and validates the threshold ordering.
func LoadPipelineConfig() (PipelineConfig, error) {
	cfg := DefaultPipelineConfig()

	readFloat(&cfg.MatchThreshold, "MATCH_THRESHOLD")
	readFloat(&cfg.DuplicateThreshold, "DUPLICATE_THRESHOLD")
	readFloat(&cfg.LivenessThreshold, "LIVENESS_THRESHOLD")
	readInt(&cfg.MaxFacesPerRequest, "MAX_FACES_PER_REQUEST")
	readInt(&cfg.MatchCandidates, "MATCH_CANDIDATES")
	readDuration(&cfg.VerifyTimeout, "VERIFY_TIMEOUT")
	readDuration(&cfg.LicenseLookupTimeout, "LICENSE_LOOKUP_TIMEOUT")
	readDuration(&cfg.RegistrationLockTTL, "REGISTRATION_LOCK_TTL")
	readDuration(&cfg.LockAcquireTimeout, "LOCK_ACQUIRE_TIMEOUT")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg PipelineConfig) Validate() error {
	if cfg.MatchThreshold < -1 || cfg.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD %.2f outside [-1, 1]", cfg.MatchThreshold)
	}
	if cfg.DuplicateThreshold < cfg.MatchThreshold {
		return fmt.Errorf("DUPLICATE_THRESHOLD %.2f must be >= MATCH_THRESHOLD %.2f",
			cfg.DuplicateThreshold, cfg.MatchThreshold)
	}
	if cfg.MaxFacesPerRequest <= 0 {
		return fmt.Errorf("MAX_FACES_PER_REQUEST must be positive, got %d", cfg.MaxFacesPerRequest)
	}
	if cfg.MatchCandidates <= 0 {
		return fmt.Errorf("MATCH_CANDIDATES must be positive, got %d", cfg.MatchCandidates)
	}
	if cfg.VerifyTimeout <= 0 || cfg.VerifyTimeout > 300*time.Second {
		return fmt.Errorf("VERIFY_TIMEOUT %v outside (0, 300s]", cfg.VerifyTimeout)
	}
	return nil
}

func readFloat(target *float64, key string) {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			*target = parsed
		}
	}
}

func readInt(target *int, key string) {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			*target = parsed
		}
	}
}

func readDuration(target *time.Duration, key string) {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			*target = parsed
		}
	}
}
