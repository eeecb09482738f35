package validation

import (
	"fmt"
	"math"

	"go-c2rcc/pkg/models"
)

// ObservationThresholds defines the limits applied to incoming pixels
type ObservationThresholds struct {
	// Request size
	MaxPixels int

	// Geometry: zenith angles beyond these are outside the training
	// range of the networks and only produce a warning
	MaxSunZenith  float64
	MaxViewZenith float64

	// Ancillary plausibility
	MinOzone    float64
	MaxOzone    float64
	MinPressure float64
	MaxPressure float64
}

// DefaultObservationThresholds returns the default limits
func DefaultObservationThresholds() ObservationThresholds {
	return ObservationThresholds{
		MaxPixels:     250000,
		MaxSunZenith:  75.0,
		MaxViewZenith: 60.0,
		MinOzone:      0.0,
		MaxOzone:      1000.0,
		MinPressure:   500.0,
		MaxPressure:   1100.0,
	}
}

// ObservationValidator checks process requests before any network runs
type ObservationValidator struct {
	thresholds ObservationThresholds
}

// NewObservationValidator creates a validator with default thresholds
func NewObservationValidator() *ObservationValidator {
	return &ObservationValidator{
		thresholds: DefaultObservationThresholds(),
	}
}

// NewObservationValidatorWithThresholds creates a validator with custom thresholds
func NewObservationValidatorWithThresholds(thresholds ObservationThresholds) *ObservationValidator {
	return &ObservationValidator{
		thresholds: thresholds,
	}
}

// Issue represents one validation finding
type Issue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	Pixel       int     `json:"pixel"`    // index into the request, -1 for the request itself
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

func (i Issue) String() string {
	if i.Pixel < 0 {
		return i.Message
	}
	return fmt.Sprintf("pixel %d: %s", i.Pixel, i.Message)
}

// ValidateRequest checks request size and every pixel. Band counts are
// checked later against the sensor profile.
func (v *ObservationValidator) ValidateRequest(req models.ProcessRequest) []Issue {
	var issues []Issue

	if req.Sensor == "" {
		issues = append(issues, Issue{Type: "missing_sensor", Message: "sensor is required", Severity: "error", Pixel: -1})
	}
	if len(req.Pixels) == 0 {
		issues = append(issues, Issue{Type: "empty_request", Message: "at least one pixel is required", Severity: "error", Pixel: -1})
	}
	if v.thresholds.MaxPixels > 0 && len(req.Pixels) > v.thresholds.MaxPixels {
		issues = append(issues, Issue{
			Type:        "too_many_pixels",
			Message:     fmt.Sprintf("%d pixels exceed the limit of %d per request", len(req.Pixels), v.thresholds.MaxPixels),
			Severity:    "error",
			Pixel:       -1,
			ActualValue: float64(len(req.Pixels)),
			Threshold:   float64(v.thresholds.MaxPixels),
		})
		return issues
	}

	for i, p := range req.Pixels {
		issues = append(issues, v.ValidatePixel(i, p)...)
	}
	return issues
}

// ValidatePixel checks one pixel for non-finite values and implausible
// geometry or ancillary data. Pixels flagged invalid by the client are
// passed through unchecked.
func (v *ObservationValidator) ValidatePixel(index int, p models.PixelInput) []Issue {
	if !p.IsValid() {
		return nil
	}
	var issues []Issue
	errorf := func(kind, format string, args ...interface{}) {
		issues = append(issues, Issue{Type: kind, Message: fmt.Sprintf(format, args...), Severity: "error", Pixel: index})
	}

	if len(p.Radiances) == 0 {
		errorf("missing_radiances", "no band values")
	}
	nonPositive := 0
	for b, r := range p.Radiances {
		if !finite(r) {
			errorf("non_finite_radiance", "band %d value is not finite", b)
		} else if r <= 0 {
			nonPositive++
		}
	}
	if nonPositive > 0 {
		issues = append(issues, Issue{
			Type:        "non_positive_radiance",
			Message:     fmt.Sprintf("%d band values <= 0, outputs will be flagged", nonPositive),
			Severity:    "warning",
			Pixel:       index,
			ActualValue: float64(nonPositive),
		})
	}
	for b, f := range p.SolarFlux {
		if !finite(f) || f <= 0 {
			errorf("invalid_solar_flux", "band %d solar flux must be finite and > 0", b)
		}
	}
	for name, a := range map[string]float64{
		"sun_zenith": p.SunZenith, "sun_azimuth": p.SunAzimuth,
		"view_zenith": p.ViewZenith, "view_azimuth": p.ViewAzimuth,
		"lat": p.Lat, "lon": p.Lon,
	} {
		if !finite(a) {
			errorf("non_finite_angle", "%s is not finite", name)
		}
	}
	if p.SunZenith < 0 || p.SunZenith >= 90 {
		errorf("sun_below_horizon", "sun zenith %g outside [0, 90)", p.SunZenith)
	} else if p.SunZenith > v.thresholds.MaxSunZenith {
		issues = append(issues, Issue{
			Type:        "high_sun_zenith",
			Message:     fmt.Sprintf("sun zenith %g above %g, results are extrapolated", p.SunZenith, v.thresholds.MaxSunZenith),
			Severity:    "warning",
			Pixel:       index,
			ActualValue: p.SunZenith,
			Threshold:   v.thresholds.MaxSunZenith,
		})
	}
	if p.ViewZenith > v.thresholds.MaxViewZenith {
		issues = append(issues, Issue{
			Type:        "high_view_zenith",
			Message:     fmt.Sprintf("view zenith %g above %g, results are extrapolated", p.ViewZenith, v.thresholds.MaxViewZenith),
			Severity:    "warning",
			Pixel:       index,
			ActualValue: p.ViewZenith,
			Threshold:   v.thresholds.MaxViewZenith,
		})
	}
	if p.Ozone != nil && (!finite(*p.Ozone) || *p.Ozone < v.thresholds.MinOzone || *p.Ozone > v.thresholds.MaxOzone) {
		errorf("invalid_ozone", "ozone %g DU outside [%g, %g]", *p.Ozone, v.thresholds.MinOzone, v.thresholds.MaxOzone)
	}
	if p.SurfacePressure != nil && (!finite(*p.SurfacePressure) ||
		*p.SurfacePressure < v.thresholds.MinPressure || *p.SurfacePressure > v.thresholds.MaxPressure) {
		errorf("invalid_pressure", "surface pressure %g hPa outside [%g, %g]", *p.SurfacePressure, v.thresholds.MinPressure, v.thresholds.MaxPressure)
	}
	if p.Altitude != nil && !finite(*p.Altitude) {
		errorf("invalid_altitude", "altitude is not finite")
	}
	return issues
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ConvertIssuesToMessages converts issues to plain messages
func (v *ObservationValidator) ConvertIssuesToMessages(issues []Issue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.String())
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (v *ObservationValidator) HasCriticalIssues(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
