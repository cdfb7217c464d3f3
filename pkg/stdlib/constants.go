package stdlib

import (
	"strings"

	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/numeric"
)

// constantTable holds the exact decimal text of each builtin constant.
// Values without a decimal point are integers.
var constantTable = []struct {
	name  string
	value string
	doc   string
}{
	{"_pi_", "3.1415926535897932384626433832795028841971693993751058209749445923078164062862089986280348253421170679", "pi to 100 decimal places"},
	{"_kelvin_", "273.15", "0 degrees Celsius in Kelvin"},
	{"_rd_", "287.05", "specific gas constant of dry air, J/(kg K)"},
	{"_cp_", "1005", "specific heat of dry air at constant pressure, J/(kg K)"},
	{"_p0_", "101325", "standard sea-level pressure, Pa"},
	{"_lv_", "2260000", "latent heat of vaporization of water, J/kg"},
	{"_cw_", "4184", "specific heat of liquid water, J/(kg K)"},
	{"_rho_air_", "1200", "density of air, g/m^3"},
	{"_rho_water_", "1000", "density of water, kg/m^3"},
	{"_g_", "9.81", "gravitational acceleration, m/s^2"},
}

func registerConstants(r *Registry) {
	for _, c := range constantTable {
		r.RegisterConst(c.name, constantValue(c.value))
	}
}

func constantValue(text string) evaluator.WValue {
	if strings.Contains(text, ".") {
		return evaluator.WRat{Value: numeric.MustDecimal(text)}
	}
	n, err := numeric.ParseInt(text)
	if err != nil {
		panic(err)
	}
	return evaluator.WInt{Value: n}
}

// ConstantDoc returns the description of a builtin constant.
func ConstantDoc(name string) (string, bool) {
	for _, c := range constantTable {
		if c.name == name {
			return c.doc, true
		}
	}
	return "", false
}
