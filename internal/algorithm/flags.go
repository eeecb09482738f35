package algorithm

import "fmt"

// Flag is a bit position in the per-pixel quality word
type Flag uint8

const (
	FlagRtosaOOR Flag = iota // atmosphere network input out of range
	FlagRtosaOOS             // autoencoder reconstruction above threshold
	FlagRwOOR                // water network input out of range
	FlagIopOOR               // any log IOP outside the training range
	FlagApigAtMax
	FlagAdetAtMax
	FlagAgelbAtMax
	FlagBpartAtMax
	FlagBwitAtMax
	FlagApigAtMin
	FlagAdetAtMin
	FlagAgelbAtMin
	FlagBpartAtMin
	FlagBwitAtMin
	FlagRwOOS // forward/inverse band ratio mismatch above threshold
	FlagKd489OOR
	FlagKdminOOR
	FlagKd489AtMax
	FlagKdminAtMax
	FlagCloud // downwelling transmittance below the cloud threshold

	FlagValid Flag = 31
)

var flagNames = map[Flag]string{
	FlagRtosaOOR:   "Rtosa_OOR",
	FlagRtosaOOS:   "Rtosa_OOS",
	FlagRwOOR:      "Rhow_OOR",
	FlagIopOOR:     "Iop_OOR",
	FlagApigAtMax:  "Apig_at_max",
	FlagAdetAtMax:  "Adet_at_max",
	FlagAgelbAtMax: "Agelb_at_max",
	FlagBpartAtMax: "Bpart_at_max",
	FlagBwitAtMax:  "Bwit_at_max",
	FlagApigAtMin:  "Apig_at_min",
	FlagAdetAtMin:  "Adet_at_min",
	FlagAgelbAtMin: "Agelb_at_min",
	FlagBpartAtMin: "Bpart_at_min",
	FlagBwitAtMin:  "Bwit_at_min",
	FlagRwOOS:      "Rhow_OOS",
	FlagKd489OOR:   "Kd489_OOR",
	FlagKdminOOR:   "Kdmin_OOR",
	FlagKd489AtMax: "Kd489_at_max",
	FlagKdminAtMax: "Kdmin_at_max",
	FlagCloud:      "Cloud_risk",
	FlagValid:      "Valid_PE",
}

// AllFlags lists every defined flag in bit order
func AllFlags() []Flag {
	flags := make([]Flag, 0, len(flagNames))
	for f := FlagRtosaOOR; f <= FlagCloud; f++ {
		flags = append(flags, f)
	}
	return append(flags, FlagValid)
}

func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("bit_%d", uint8(f))
}

// Mask returns the flag as a single-bit word
func (f Flag) Mask() uint32 { return 1 << f }

// Flags is the per-pixel quality word
type Flags uint32

// Set raises the flag when on is true. Bits are never cleared.
func (fs *Flags) Set(f Flag, on bool) {
	if on {
		*fs |= Flags(f.Mask())
	}
}

// Clear lowers the flag
func (fs *Flags) Clear(f Flag) {
	*fs &^= Flags(f.Mask())
}

func (fs Flags) Has(f Flag) bool {
	return uint32(fs)&f.Mask() != 0
}

// Names returns the names of the raised flags in bit order
func (fs Flags) Names() []string {
	var names []string
	for _, f := range AllFlags() {
		if fs.Has(f) {
			names = append(names, f.String())
		}
	}
	return names
}
