package model1

import (
	"strconv"
	"strings"

	"github.com/fvbommel/sortorder"
)

// Compare orders two rendered values according to the column kind.
// It returns -1, 0 or 1.
func Compare(a Attrs, v1, v2 string) int {
	switch {
	case v1 == v2:
		return 0
	case Less(a, v1, v2):
		return -1
	case Less(a, v2, v1):
		return 1
	default:
		return 0
	}
}

// Less returns true if v1 sorts strictly before v2.
func Less(a Attrs, v1, v2 string) bool {
	switch {
	case a.Number:
		return lessNumber(v1, v2)
	case a.Time:
		return lessDuration(v1, v2)
	case a.Capacity:
		return lessCapacity(v1, v2)
	default:
		return sortorder.NaturalLess(v1, v2)
	}
}

func lessDuration(s1, s2 string) bool {
	return durationToSeconds(s1) < durationToSeconds(s2)
}

func lessCapacity(s1, s2 string) bool {
	c1, ok1 := toBytes(s1)
	c2, ok2 := toBytes(s2)
	if ok1 && ok2 {
		return c1 < c2
	}
	return sortorder.NaturalLess(s1, s2)
}

func lessNumber(s1, s2 string) bool {
	v1, v2 := strings.ReplaceAll(s1, ",", ""), strings.ReplaceAll(s2, ",", "")
	f1, err1 := strconv.ParseFloat(v1, 64)
	f2, err2 := strconv.ParseFloat(v2, 64)
	if err1 == nil && err2 == nil {
		return f1 < f2
	}
	return sortorder.NaturalLess(v1, v2)
}

var capacityUnits = []struct {
	suffix string
	mult   float64
}{
	{"TiB", 1 << 40}, {"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10},
	{"TB", 1e12}, {"GB", 1e9}, {"MB", 1e6}, {"KB", 1e3}, {"B", 1},
}

func toBytes(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, u := range capacityUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 64)
		if err != nil {
			return 0, false
		}
		return f * u.mult, true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func durationToSeconds(duration string) int64 {
	if duration == "" || duration == NAValue {
		return 0
	}
	num := make([]rune, 0, 5)
	var n, m int64
	for _, r := range duration {
		switch r {
		case 'y':
			m = 365 * 24 * 60 * 60
		case 'd':
			m = 24 * 60 * 60
		case 'h':
			m = 60 * 60
		case 'm':
			m = 60
		case 's':
			m = 1
		default:
			num = append(num, r)
			continue
		}
		n, num = n+runesToNum(num)*m, num[:0]
	}
	return n
}

func runesToNum(rr []rune) int64 {
	var r int64
	var m int64 = 1
	for i := len(rr) - 1; i >= 0; i-- {
		v := int64(rr[i] - '0')
		r += v * m
		m *= 10
	}
	return r
}
