package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// force the timezone to London because both registries report UK-local
// dates and our servers sometimes end up in other regions, which shifts
// ages and filing dates computed from <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}

// Timestamp renders t the way output files are named, e.g. 20240131_154503.
func Timestamp(t time.Time) string {
	return t.In(Location).Format("20060102_150405")
}
