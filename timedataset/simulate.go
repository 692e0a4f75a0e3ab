package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT creates n daily time points ending the day before nowFunc
func GenerateT(n int, nowFunc func() time.Time) []time.Time {
	end := TruncateDay(nowFunc())
	return DailyRange(end.AddDate(0, 0, -n), n)
}

// Series is a helper for composing simulated observations
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	for i := 0; i < len(s); i++ {
		if !t[i].Before(start) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

// SetNaN marks the observations in [start, end) as missing
func (s Series) SetNaN(t []time.Time, start, end time.Time) Series {
	return s.SetConst(t, math.NaN(), start, end)
}

func (s Series) MaskWithWeekend(t []time.Time) Series {
	for i := 0; i < len(s); i++ {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			s[i] = 0.0
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateTrendY generates a line starting at 0 and increasing by slope every point
func GenerateTrendY(n int, slope float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = slope * float64(i)
	}
	return Series(y)
}

// GenerateWaveY generates a sine wave with a period expressed in days
func GenerateWaveY(t []time.Time, amp, periodDays, order, dayOffset float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		day := float64(t[i].Unix())/86400.0 + dayOffset
		y = append(y, amp*math.Sin(2.0*math.Pi*order/periodDays*day))
	}
	return Series(y)
}

// GenerateNoise generates gaussian noise with the given scale. The seed makes runs repeatable.
func GenerateNoise(n int, scale float64, seed uint64) Series {
	rng := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*scale)
	}
	return Series(y)
}
