package models

import (
	"time"

	"go-c2rcc/internal/algorithm"
	"go-c2rcc/internal/processor"
)

// ProcessRequest asks for the correction of a batch of pixels of one sensor
type ProcessRequest struct {
	Sensor string `json:"sensor" binding:"required"`
	NetSet string `json:"net_set,omitempty"`
	// AcquisitionTime drives the sun-earth distance correction of the
	// default solar flux and the ancillary lookups.
	AcquisitionTime *time.Time `json:"acquisition_time,omitempty"`
	// AcquisitionEnd closes the acquisition interval. When set, the centre
	// of [AcquisitionTime, AcquisitionEnd] replaces AcquisitionTime.
	AcquisitionEnd *time.Time `json:"acquisition_end,omitempty"`
	// Ancillary replaces the configured ozone and pressure defaults for
	// this request.
	Ancillary *AncillaryInput `json:"ancillary,omitempty"`
	// Config overrides individual knobs of the service configuration.
	// Fields missing from the request keep their configured values.
	Config *algorithm.Config `json:"config,omitempty"`
	// Preset selects a named output product set (standard, minimal, full)
	// and takes precedence over the output toggles of Config.
	Preset string       `json:"preset,omitempty"`
	Pixels []PixelInput `json:"pixels" binding:"required,min=1,dive"`
}

// AncillarySnapshot is one ozone (DU) and surface pressure (hPa) reading
type AncillarySnapshot struct {
	Time            time.Time `json:"time"`
	Ozone           float64   `json:"ozone"`
	SurfacePressure float64   `json:"surface_pressure"`
}

// AncillaryInput holds the snapshot valid at the start of the acquisition
// and optionally one at its end; pixels in between get a linear blend.
type AncillaryInput struct {
	Start AncillarySnapshot  `json:"start"`
	End   *AncillarySnapshot `json:"end,omitempty"`
}

// PixelInput is one observation as sent by clients. Ancillary values that
// are left out are taken from the configured providers.
type PixelInput struct {
	X               int       `json:"x"`
	Y               int       `json:"y"`
	Lat             float64   `json:"lat" binding:"gte=-90,lte=90"`
	Lon             float64   `json:"lon" binding:"gte=-180,lte=360"`
	SunZenith       float64   `json:"sun_zenith" binding:"gte=0,lte=90"`
	SunAzimuth      float64   `json:"sun_azimuth"`
	ViewZenith      float64   `json:"view_zenith" binding:"gte=0,lte=90"`
	ViewAzimuth     float64   `json:"view_azimuth"`
	Radiances       []float64 `json:"radiances" binding:"required"`
	SolarFlux       []float64 `json:"solar_flux,omitempty"`
	Ozone           *float64  `json:"ozone,omitempty"`
	SurfacePressure *float64  `json:"surface_pressure,omitempty"`
	Altitude        *float64  `json:"altitude,omitempty"`
	// Valid defaults to true
	Valid *bool `json:"valid,omitempty"`
}

// IsValid reports the pixel validity, defaulting to true
func (p PixelInput) IsValid() bool {
	return p.Valid == nil || *p.Valid
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse reports service liveness and the preloaded network sets
type HealthResponse struct {
	Status     string              `json:"status"`
	Version    string              `json:"version"`
	Time       string              `json:"time"`
	LoadedSets []string            `json:"loaded_sets"`
	Queue      processor.PoolStats `json:"queue"`
}

// JobAccepted is returned when an asynchronous job has been queued
type JobAccepted struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	StatusURL string    `json:"status_url"`
}
