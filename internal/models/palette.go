package models

// Gradient pairs per comfort band, top color first.
var bandColors = map[string][2]string{
	"HOT":  {"#FF6450", "#FFB48C"},
	"WARM": {"#FFC896", "#FFFFDC"},
	"OK":   {"#E6FFE6", "#FFFFFF"},
	"COOL": {"#96DCFF", "#DCFFFF"},
	"COLD": {"#647DC8", "#64C8FF"},
}

var unknownColors = [2]string{"#DCDCDC", "#FFFFFF"}

// BandColors returns the gradient used to paint a room in the given band.
func BandColors(band string) [2]string {
	if c, ok := bandColors[band]; ok {
		return c
	}
	return unknownColors
}
