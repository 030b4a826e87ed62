package domain

import "sort"

// Fuse outer-joins region statistics with theme profiles on region name:
// every region present in either input appears exactly once. A region with a
// RegionStat gets its AvgValue as AvgTemperature; without one the temperature
// is nil, never zero, since zero is a valid reading. A region missing from the
// profiles (profiles are normally total, so this is defensive) gets
// GreenRatio 0 and DensityClass Unknown.
//
// Join order is stats order followed by profile-only regions in profile
// order; the result is then stable-sorted by AvgTemperature descending with
// every absent temperature after every present one, ties keeping join order.
func Fuse(stats []RegionStat, profiles []ThemeProfile) []FusedRecord {
	profileByRegion := make(map[string]ThemeProfile, len(profiles))
	for _, p := range profiles {
		profileByRegion[p.Region] = p
	}

	records := make([]FusedRecord, 0, len(stats)+len(profiles))
	joined := make(map[string]bool, len(stats))

	for _, s := range stats {
		if joined[s.Region] {
			continue
		}
		joined[s.Region] = true

		rec := FusedRecord{
			Region:       s.Region,
			GreenRatio:   0,
			DensityClass: DensityUnknown,
		}
		avg := s.AvgValue
		rec.AvgTemperature = &avg
		if p, ok := profileByRegion[s.Region]; ok {
			rec.GreenRatio = p.GreenRatio
			rec.DensityClass = p.DensityClass
		}
		records = append(records, rec)
	}

	for _, p := range profiles {
		if joined[p.Region] {
			continue
		}
		joined[p.Region] = true

		records = append(records, FusedRecord{
			Region:         p.Region,
			AvgTemperature: nil,
			GreenRatio:     p.GreenRatio,
			DensityClass:   p.DensityClass,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].AvgTemperature, records[j].AvgTemperature
		switch {
		case a != nil && b != nil:
			return *a > *b
		case a != nil:
			return true // present sorts before absent
		default:
			return false
		}
	})

	return records
}
