package models

// SensorInfo describes a supported sensor
type SensorInfo struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	InputBands         int       `json:"input_bands"`
	InputIsReflectance bool      `json:"input_is_reflectance"`
	Wavelengths        []float64 `json:"wavelengths"`
	AtmosphereBands    []int     `json:"atmosphere_bands"`
	WaterBands         int       `json:"water_bands"`
	NetSets            []string  `json:"net_sets"`
	DefaultNetSet      string    `json:"default_net_set"`
}

// FlagInfo names one bit of the quality word
type FlagInfo struct {
	Bit  uint   `json:"bit"`
	Name string `json:"name"`
	Mask uint32 `json:"mask"`
}

// NetRoleInfo describes one loaded network of a set
type NetRoleInfo struct {
	Role     string `json:"role"`
	Source   string `json:"source"`
	Topology string `json:"topology,omitempty"`
	Inputs   int    `json:"inputs"`
	Outputs  int    `json:"outputs"`
}

// NetSetInfo describes a loaded network set
type NetSetInfo struct {
	Sensor string        `json:"sensor"`
	Name   string        `json:"name"`
	Roles  []NetRoleInfo `json:"roles"`
}
