package algorithm

import (
	"fmt"

	apperrors "go-c2rcc/internal/errors"
)

// Config holds the scalar knobs of a processing run
type Config struct {
	// Water properties
	Salinity    float64 `json:"salinity" yaml:"salinity"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Thresholds
	ThresholdAtmosphereOOS float64 `json:"threshold_atmosphere_oos" yaml:"threshold_atmosphere_oos"`
	ThresholdWaterOOS      float64 `json:"threshold_water_oos" yaml:"threshold_water_oos"`
	ThresholdCloudTransD   float64 `json:"threshold_cloud_transd" yaml:"threshold_cloud_transd"`

	// Concentration conversion: CHL = CHLFactor * apig^CHLExponent, TSM = TSMFactor * btot^TSMExponent
	CHLFactor   float64 `json:"chl_factor" yaml:"chl_factor"`
	CHLExponent float64 `json:"chl_exponent" yaml:"chl_exponent"`
	TSMFactor   float64 `json:"tsm_factor" yaml:"tsm_factor"`
	TSMExponent float64 `json:"tsm_exponent" yaml:"tsm_exponent"`

	// Output toggles
	OutputRtosa         bool `json:"output_rtosa" yaml:"output_rtosa"`
	OutputRtosaAann     bool `json:"output_rtosa_aann" yaml:"output_rtosa_aann"`
	OutputRpath         bool `json:"output_rpath" yaml:"output_rpath"`
	OutputTdown         bool `json:"output_tdown" yaml:"output_tdown"`
	OutputTup           bool `json:"output_tup" yaml:"output_tup"`
	OutputRwa           bool `json:"output_rwa" yaml:"output_rwa"`
	OutputRwn           bool `json:"output_rwn" yaml:"output_rwn"`
	OutputRrs           bool `json:"output_rrs" yaml:"output_rrs"`
	OutputOOS           bool `json:"output_oos" yaml:"output_oos"`
	OutputKd            bool `json:"output_kd" yaml:"output_kd"`
	OutputUncertainties bool `json:"output_uncertainties" yaml:"output_uncertainties"`

	// DeriveRwFromPathAndTransmittance replaces the rtosa_rw network by
	// (r_tosa - rpath) / (transd * transu).
	DeriveRwFromPathAndTransmittance bool `json:"derive_rw_from_path_and_transmittance" yaml:"derive_rw_from_path_and_transmittance"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() Config {
	return Config{
		Salinity:               35.0,
		Temperature:            15.0,
		ThresholdAtmosphereOOS: 0.05,
		ThresholdWaterOOS:      0.1,
		ThresholdCloudTransD:   0.955,
		CHLFactor:              21.0,
		CHLExponent:            1.04,
		TSMFactor:              1.73,
		TSMExponent:            1.0,
		OutputRtosa:            true,
		OutputRwa:              true,
		OutputOOS:              true,
		OutputKd:               true,
		OutputUncertainties:    true,
	}
}

// MinimalConfig only retrieves water reflectance and IOPs
func MinimalConfig() Config {
	cfg := DefaultConfig()
	cfg.OutputRtosa = false
	cfg.OutputOOS = false
	cfg.OutputKd = false
	cfg.OutputUncertainties = false
	return cfg
}

// FullConfig enables every optional output
func FullConfig() Config {
	cfg := DefaultConfig()
	cfg.OutputRtosaAann = true
	cfg.OutputRpath = true
	cfg.OutputTdown = true
	cfg.OutputTup = true
	cfg.OutputRwn = true
	cfg.OutputRrs = true
	return cfg
}

// WithWater sets salinity (PSU) and temperature (C)
func (c Config) WithWater(salinity, temperature float64) Config {
	c.Salinity = salinity
	c.Temperature = temperature
	return c
}

// WithThresholds sets the out-of-scope and cloud thresholds
func (c Config) WithThresholds(atmosphereOOS, waterOOS, cloudTransD float64) Config {
	c.ThresholdAtmosphereOOS = atmosphereOOS
	c.ThresholdWaterOOS = waterOOS
	c.ThresholdCloudTransD = cloudTransD
	return c
}

// WithUncertainties toggles the uncertainty stage
func (c Config) WithUncertainties(on bool) Config {
	c.OutputUncertainties = on
	return c
}

// WithDerivedRw derives water reflectance from path radiance and transmittances
func (c Config) WithDerivedRw() Config {
	c.DeriveRwFromPathAndTransmittance = true
	return c
}

// Validate rejects values outside the ranges the networks were trained for
func (c Config) Validate() error {
	check := func(name string, v, min, max float64) error {
		if v < min || v > max {
			return apperrors.NewConfigError(fmt.Sprintf("%s %g outside [%g, %g]", name, v, min, max), nil)
		}
		return nil
	}
	checks := []error{
		check("salinity", c.Salinity, 0.000028, 43),
		check("temperature", c.Temperature, 0.000111, 36),
		check("atmosphere OOS threshold", c.ThresholdAtmosphereOOS, 0, 10),
		check("water OOS threshold", c.ThresholdWaterOOS, 0, 10),
		check("cloud transmittance threshold", c.ThresholdCloudTransD, 0, 1),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if c.CHLFactor <= 0 || c.TSMFactor <= 0 {
		return apperrors.NewConfigError("concentration factors must be > 0", nil)
	}
	return nil
}

// needsAutoencoder reports whether the rtosa_aann network has to run
func (c Config) needsAutoencoder() bool {
	return c.OutputOOS || c.OutputRtosaAann
}

func (c Config) needsPath() bool {
	return c.OutputRpath || c.DeriveRwFromPathAndTransmittance
}

func (c Config) needsTransmittance() bool {
	return c.OutputTdown || c.OutputTup || c.DeriveRwFromPathAndTransmittance
}
