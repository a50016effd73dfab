package contributors

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Month is the month length used for tenure reporting.
const Month = 732 * time.Hour

// TenureStats summarizes tenure over a set of authors.
type TenureStats struct {
	Authors int           `json:"authors" yaml:"authors"`
	Mean    time.Duration `json:"mean" yaml:"mean"`
	StdDev  time.Duration `json:"stddev" yaml:"stddev"`
	Max     time.Duration `json:"max" yaml:"max"`
}

// ComputeTenureStats returns the mean, population standard deviation and
// maximum of the profiles' tenure.
func ComputeTenureStats(profiles []*Profile) TenureStats {
	if len(profiles) == 0 {
		return TenureStats{}
	}

	tenures := make([]float64, len(profiles))
	for i, p := range profiles {
		tenures[i] = float64(p.Tenure)
	}

	mean, std := stat.PopMeanStdDev(tenures, nil)
	return TenureStats{
		Authors: len(profiles),
		Mean:    seconds(mean),
		StdDev:  seconds(std),
		Max:     seconds(floats.Max(tenures)),
	}
}

// Months converts d to months of 30.5 days.
func Months(d time.Duration) float64 {
	return float64(d) / float64(Month)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
