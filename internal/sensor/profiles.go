package sensor

import "go-c2rcc/internal/netset"

// Net set names shared by several sensors
const (
	NetSetC2RCC = "C2RCC-Nets"
	NetSetC2X   = "C2X-Nets"
)

// shipped binds only the networks that are distributed for a sensor. Sets
// built this way cannot load on their own.
func shipped(known map[netset.Role]string) netset.Binding {
	var b netset.Binding
	for r, name := range known {
		b[r] = name
	}
	return b
}

const (
	merisMid = "meris/coastcolour_midtsm_20161012/"
	merisC2X = "meris/c2x/nn4snap_meris_hitsm_20151128/"
)

var merisC2RCCNets = netset.Binding{
	netset.RtosaAann:         merisMid + "atmo_midtsm/rtosa_aann/31x7x31_786.7.net",
	netset.RtosaRw:           merisMid + "atmo_midtsm/rtosa_rw/37x77x57x37_727927.1.net",
	netset.RwIop:             merisMid + "water_midtsm/rw_iop/97x77x37_22393.1.net",
	netset.IopRw:             merisMid + "water_midtsm/iop_rw/17x97x47_490.7.net",
	netset.RwKd:              merisMid + "water_midtsm/rw_kd/97x77x7_376.3.net",
	netset.IopUncIop:         merisMid + "water_midtsm/iop_unciop/17x77x37_11486.7.net",
	netset.IopUncSumIopUncKd: merisMid + "water_midtsm/iop_uncsumiop_unckd/17x77x37_9113.1.net",
	netset.RwRwNorm:          merisMid + "water_midtsm/rw_rwnorm/37x57x17_76.8.net",
	netset.RtosaTrans:        merisMid + "atmo_midtsm/rtosa_trans/31x37_39553.7.net",
	netset.RtosaRpath:        merisMid + "atmo_midtsm/rtosa_rpath/31x37_2058.3.net",
}

var merisC2XNets = netset.Binding{
	netset.RtosaAann:         merisC2X + "rtosa_aann/31x7x31_1244.3.net",
	netset.RtosaRw:           merisC2X + "rtosa_rw/17x27x27x17_677356.6.net",
	netset.RwIop:             merisC2X + "rw_iop/27x97x77x37_14746.2.net",
	netset.IopRw:             merisC2X + "iop_rw/17x37x97x47_500.0.net",
	netset.RwKd:              merisC2X + "rw_kd/97x77x7_232.4.net",
	netset.IopUncIop:         merisC2X + "iop_unciop/17x77x37_11486.7.net",
	netset.IopUncSumIopUncKd: merisC2X + "iop_uncsumiop_unckd/17x77x37_9113.1.net",
	netset.RwRwNorm:          merisC2X + "rw_rwnorm/37x57x17_76.8.net",
	netset.RtosaTrans:        merisC2X + "rtosa_trans/31x77x57x37_45461.2.net",
	netset.RtosaRpath:        merisC2X + "rtosa_rpath/31x77x57x37_4701.4.net",
}

func init() {
	register(&Profile{
		Name:        "meris",
		Description: "ENVISAT MERIS L1b radiances, 15 bands",
		InputBands:  15,
		// 1-based bands 1-10, 12, 13
		AtmosphereBands: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12},
		WaterBands:      10,
		OzoneAbsorption: []float64{
			8.2e-04, 2.82e-03, 2.076e-02, 3.96e-02, 1.022e-01, 1.059e-01,
			5.313e-02, 3.552e-02, 1.895e-02, 8.38e-03, 7.2e-04, 0.0,
		},
		// 708 nm corrected with the 900/885 ratio
		WaterVapour: &WaterVapourCorrection{Numerator: 14, Denominator: 13, Target: 8},
		CloudBand:   11,
		Wavelengths: []float64{
			412.691, 442.55902, 489.88202, 509.81903, 559.69403,
			619.601, 664.57306, 680.82104, 708.32904, 753.37103,
			761.50806, 778.40906, 864.87604, 884.94403, 900.00006,
		},
		DefaultSolarFlux: []float64{
			1724.724, 1889.8026, 1939.5339, 1940.1365, 1813.5457,
			1660.3589, 1540.5198, 1480.7161, 1416.1177, 1273.394,
			1261.8658, 1184.0952, 963.94995, 935.23706, 900.659,
		},
		NetSets: map[string]netset.Binding{
			NetSetC2RCC: merisC2RCCNets,
			NetSetC2X:   merisC2XNets,
		},
		DefaultNetSet: NetSetC2RCC,
	})

	register(&Profile{
		Name:               "modis",
		Description:        "Aqua MODIS L1C TOA reflectances, 9 ocean bands",
		InputBands:         9,
		InputIsReflectance: true,
		AtmosphereBands:    []int{0, 1, 2, 3, 4, 5, 6, 7, 8},
		WaterBands:         8,
		WaterInputWidth:    10,
		OzoneAbsorption: []float64{
			1.987e-03, 3.189e-03, 2.032e-02, 6.838e-02, 8.622e-02,
			4.890e-02, 3.787e-02, 1.235e-02, 1.936e-03,
		},
		CloudBand:   8,
		Wavelengths: []float64{412, 443, 488, 531, 547, 667, 678, 748, 869},
		NetSets: map[string]netset.Binding{
			NetSetC2RCC: shipped(map[netset.Role]string{
				netset.RtosaAann: "modis/rtoa_modis_aaNN7/31x7x31_250.8.net",
				netset.RtosaRw:   "modis/rtoa_rw_modis_nn3/33x73x53x33_508087.3.net",
				netset.RwIop:     "modis/inv_modis_fl/97x77x37_13150.2.net",
			}),
		},
		DefaultNetSet: NetSetC2RCC,
	})

	register(&Profile{
		Name:            "seawifs",
		Description:     "SeaStar SeaWiFS L1b radiances, 8 bands",
		InputBands:      8,
		AtmosphereBands: []int{0, 1, 2, 3, 4, 5, 6, 7},
		WaterBands:      7,
		OzoneAbsorption: []float64{0, 0.0027, 0.0205, 0.0382, 0.0898, 0.0463, 0.0083, 0},
		CloudBand:       7,
		Wavelengths:     []float64{412, 443, 490, 510, 555, 670, 765, 865},
		DefaultSolarFlux: []float64{
			1735.518167, 1858.404314, 1981.076667, 1881.566829,
			1874.005, 1537.254783, 1230.04, 957.6122143,
		},
		NetSets: map[string]netset.Binding{
			NetSetC2RCC: shipped(map[netset.Role]string{
				netset.RtosaAann: "seawifs/coastcolour_atmo_press_20150221/rtoa_seaw_aaNN7/31x7x31_215.9.net",
				netset.RtosaRw:   "seawifs/coastcolour_atmo_press_20150221/rtoa_rw_seaw_nn3/33x73x53x33_515179.0.net",
				netset.RwIop:     "seawifs/coastcolour_wat_20140318/inv_seawifs_logrw_logiop_20140318_noise_p5/87x77x37_14386.6.net",
			}),
		},
		DefaultNetSet: NetSetC2RCC,
	})

	register(&Profile{
		Name:               "viirs",
		Description:        "Suomi NPP VIIRS TOA reflectances, 7 M bands",
		InputBands:         7,
		InputIsReflectance: true,
		AtmosphereBands:    []int{0, 1, 2, 3, 4, 5, 6},
		WaterBands:         6,
		OzoneAbsorption:    []float64{0, 0.0027, 0.0205, 0.0898, 0.0463, 0.0095, 0},
		CloudBand:          6,
		Wavelengths:        []float64{410, 443, 486, 551, 671, 745, 862},
		NetSets: map[string]netset.Binding{
			NetSetC2RCC: shipped(map[netset.Role]string{
				netset.RtosaAann: "viirs/coastcolour_atmo_press_20150221/rtoa_viirs_aaNN7/31x7x31_228.7.net",
				netset.RtosaRw:   "viirs/coastcolour_atmo_press_20150221/rtoa_rw_viirs_nn3/33x73x53x33_420666.6.net",
				netset.RwIop:     "viirs/coastcolour_wat_20140318/inv_viirs_logrw_logiop_20140318_noise_p5/87x77x37_15389.9.net",
			}),
		},
		DefaultNetSet: NetSetC2RCC,
	})
}
