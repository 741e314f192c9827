package dashboard

// PunctualityPoint is on-time performance for one hour of the day.
type PunctualityPoint struct {
	Name string  `json:"name"`
	OTP  float64 `json:"otp"`
}

// DelayPoint is the average delay in minutes for one weekday.
type DelayPoint struct {
	Name     string  `json:"name"`
	AvgDelay float64 `json:"avgDelay"`
}

// ThroughputPoint is the number of trains through the section in an hour.
type ThroughputPoint struct {
	Hour   int `json:"hour"`
	Trains int `json:"trains"`
}

// WeatherImpactPoint relates a weather condition to incidents and delay.
type WeatherImpactPoint struct {
	Name      string  `json:"name"`
	Incidents int     `json:"incidents"`
	AvgDelay  float64 `json:"avgDelay"`
}

// KPIs is the analytics view. The series are fixed sample data.
type KPIs struct {
	Punctuality   []PunctualityPoint   `json:"punctuality"`
	Delay         []DelayPoint         `json:"delay"`
	Throughput    []ThroughputPoint    `json:"throughput"`
	WeatherImpact []WeatherImpactPoint `json:"weatherImpact"`
}

// StaticKPIs returns the sample analytics series.
func StaticKPIs() KPIs {
	return KPIs{
		Punctuality: []PunctualityPoint{
			{"08:00", 95}, {"09:00", 92}, {"10:00", 93},
			{"11:00", 88}, {"12:00", 91}, {"13:00", 94},
		},
		Delay: []DelayPoint{
			{"Mon", 2.1}, {"Tue", 1.8}, {"Wed", 2.5}, {"Thu", 2.2},
			{"Fri", 3.1}, {"Sat", 1.5}, {"Sun", 1.2},
		},
		Throughput: []ThroughputPoint{
			{6, 8}, {7, 12}, {8, 15}, {9, 14}, {10, 11}, {11, 10},
		},
		WeatherImpact: []WeatherImpactPoint{
			{"Clear", 2, 1.2}, {"Rain", 5, 2.5}, {"Wind", 3, 3.1},
			{"Heat", 1, 1.8}, {"Snow", 2, 4.5},
		},
	}
}

// maxOf returns the largest value produced by f over n items, or 1 when
// every value is zero so it can be used as a divisor.
func maxOf(n int, f func(int) float64) float64 {
	m := 0.0
	for i := 0; i < n; i++ {
		if v := f(i); v > m {
			m = v
		}
	}
	if m == 0 {
		return 1
	}
	return m
}
