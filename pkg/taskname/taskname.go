package taskname

const (
	// Award tasks
	PointsActivity = "points:activity"
)
