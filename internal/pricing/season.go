package pricing

import (
	"strings"
	"time"
)

type Season string

const (
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonAutumn Season = "AUTUMN"
	SeasonWinter Season = "WINTER"
)

var seasonMultipliers = map[Season]float64{
	SeasonSpring: 1.0,
	SeasonSummer: 1.3,
	SeasonAutumn: 0.9,
	SeasonWinter: 0.8,
}

// SeasonFor maps a calendar date to its pricing season (northern hemisphere).
func SeasonFor(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// ParseSeason accepts season names case-insensitively; "FALL" is an alias for autumn.
func ParseSeason(s string) (Season, bool) {
	season := Season(strings.ToUpper(strings.TrimSpace(s)))
	if season == "FALL" {
		season = SeasonAutumn
	}
	_, ok := seasonMultipliers[season]
	return season, ok
}

func SeasonMultiplier(s Season) float64 {
	if m, ok := seasonMultipliers[s]; ok {
		return m
	}
	return 1.0
}
