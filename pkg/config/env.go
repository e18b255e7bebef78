// pkg/config/env.go
package config

import (
	"os"
	"strconv"
)

// Environment variables that override world settings
const (
	EnvGravityX          = "PHYS2D_GRAVITY_X"
	EnvGravityY          = "PHYS2D_GRAVITY_Y"
	EnvPixelsPerMeter    = "PHYS2D_PIXELS_PER_METER"
	EnvTimeStep          = "PHYS2D_TIME_STEP"
	EnvMaxSubSteps       = "PHYS2D_MAX_SUB_STEPS"
	EnvCorrectionPercent = "PHYS2D_CORRECTION_PERCENT"
	EnvCorrectionSlop    = "PHYS2D_CORRECTION_SLOP"
)

// ApplyEnvironmentOverrides replaces world settings with any PHYS2D_*
// variables present in the environment and revalidates the scene.
// Unparseable values are ignored.
func ApplyEnvironmentOverrides(config *SceneConfig) error {
	w := &config.World
	w.Gravity.X = getEnvAsFloatOrDefault(EnvGravityX, w.Gravity.X)
	w.Gravity.Y = getEnvAsFloatOrDefault(EnvGravityY, w.Gravity.Y)
	w.PixelsPerMeter = getEnvAsFloatOrDefault(EnvPixelsPerMeter, w.PixelsPerMeter)
	w.TimeStep = getEnvAsFloatOrDefault(EnvTimeStep, w.TimeStep)
	w.MaxSubSteps = getEnvAsIntOrDefault(EnvMaxSubSteps, w.MaxSubSteps)
	w.CorrectionPercent = getEnvAsFloatOrDefault(EnvCorrectionPercent, w.CorrectionPercent)
	w.CorrectionSlop = getEnvAsFloatOrDefault(EnvCorrectionSlop, w.CorrectionSlop)

	return config.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnvOrDefault(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}
