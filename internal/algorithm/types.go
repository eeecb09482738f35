package algorithm

// PixelObservation is everything known about one pixel before correction.
// Radiances holds TOA radiances, or TOA reflectances for sensors whose
// profile declares reflectance input. SolarFlux may be empty, in which
// case the profile default is used.
type PixelObservation struct {
	X               int       `json:"x"`
	Y               int       `json:"y"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	SunZenith       float64   `json:"sun_zenith"`
	SunAzimuth      float64   `json:"sun_azimuth"`
	ViewZenith      float64   `json:"view_zenith"`
	ViewAzimuth     float64   `json:"view_azimuth"`
	Altitude        float64   `json:"altitude"`
	SurfacePressure float64   `json:"surface_pressure"`
	Ozone           float64   `json:"ozone"`
	Radiances       []float64 `json:"radiances"`
	SolarFlux       []float64 `json:"solar_flux,omitempty"`
	Valid           bool      `json:"valid"`
}

// GeometryAngles are the trigonometric quantities derived from the sun and
// view angles of a pixel.
type GeometryAngles struct {
	CosSun     float64
	SinSun     float64
	CosView    float64
	SinView    float64
	CosAziDiff float64
	SinAziDiff float64
	AziDiffDeg float64
	ViewDir    [3]float64
}

// IOPs are the five retrieved inherent optical properties in m^-1 and
// their sums.
type IOPs struct {
	Apig  float64 `json:"apig"`
	Adet  float64 `json:"adet"`
	Agelb float64 `json:"agelb"`
	Bpart float64 `json:"bpart"`
	Bwit  float64 `json:"bwit"`
	Adg   float64 `json:"adg"`
	Atot  float64 `json:"atot"`
	Btot  float64 `json:"btot"`
}

// Uncertainties are absolute uncertainties unless noted otherwise
type Uncertainties struct {
	IOPAbs [5]float64 `json:"iop_abs"`
	// IOPRel is the relative uncertainty in percent
	IOPRel [5]float64 `json:"iop_rel"`
	Adg    float64    `json:"adg"`
	Atot   float64    `json:"atot"`
	Btot   float64    `json:"btot"`
	Kd489  float64    `json:"kd489"`
	KdMin  float64    `json:"kdmin"`
	CHL    float64    `json:"chl"`
	TSM    float64    `json:"tsm"`
}

// Result is the complete output for one pixel. Vectors that were not
// requested are nil.
type Result struct {
	X             int           `json:"x"`
	Y             int           `json:"y"`
	RToa          []float64     `json:"r_toa"`
	RTosa         []float64     `json:"r_tosa,omitempty"`
	RTosaAann     []float64     `json:"rtosa_aann,omitempty"`
	RPath         []float64     `json:"rpath,omitempty"`
	TransD        []float64     `json:"transd,omitempty"`
	TransU        []float64     `json:"transu,omitempty"`
	Rwa           []float64     `json:"rwa,omitempty"`
	Rwn           []float64     `json:"rwn,omitempty"`
	Rrs           []float64     `json:"rrs,omitempty"`
	AtmosphereOOS float64       `json:"atmosphere_oos"`
	WaterOOS      float64       `json:"water_oos"`
	IOPs          IOPs          `json:"iops"`
	Kd489         float64       `json:"kd489"`
	KdMin         float64       `json:"kdmin"`
	CHL           float64       `json:"chl"`
	TSM           float64       `json:"tsm"`
	Unc           Uncertainties `json:"uncertainties"`
	Flags         Flags         `json:"flags"`
}
