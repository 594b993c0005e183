package stats

// defaultIntensity applies to activity types missing from intensityFactors.
const defaultIntensity = 6.0

// elevationFactor is kcal per kg per meter climbed.
const elevationFactor = 0.01

var intensityFactors = map[string]float64{
	"Walk":           3.5,
	"Run":            9.8,
	"Ride":           6.8,
	"Swim":           8.3,
	"Hike":           7.5,
	"WeightTraining": 5,
	"Workout":        8,
	"Yoga":           2.5,
}

var climbingTypes = map[string]bool{
	"Walk": true,
	"Run":  true,
	"Ride": true,
	"Hike": true,
}

// IntensityFactor returns the MET-like multiplier used for activityType.
func IntensityFactor(activityType string) float64 {
	if f, ok := intensityFactors[activityType]; ok {
		return f
	}
	return defaultIntensity
}

// EstimateCalories estimates energy expenditure in kcal. Elevation only
// contributes for Walk, Run, Ride and Hike.
func EstimateCalories(activityType string, durationMinutes, weightKg, elevationGainMeters float64) float64 {
	base := IntensityFactor(activityType) * weightKg * (durationMinutes / 60)

	var climb float64
	if climbingTypes[activityType] {
		climb = elevationFactor * weightKg * elevationGainMeters
	}

	return base + climb
}

// EstimateActivityCalories applies EstimateCalories to a single activity using its moving time.
func EstimateActivityCalories(a Activity, weightKg float64) float64 {
	return EstimateCalories(a.Type, float64(a.MovingTimeSeconds)/60, weightKg, a.ElevationGainMeters)
}
