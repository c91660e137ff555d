package recon

import (
	"strconv"
	"strings"
)

func i64(v int64) *int64 { return &v }

func keysFor(city, province, country, region string, lat, lng float64) *ClusterKeys {
	return &ClusterKeys{
		GPS:      strings.ToLower(city) + "@" + fmtCoord(lat) + "," + fmtCoord(lng),
		City:     city,
		Province: province,
		Country:  country,
		Region:   region,
		Global:   "GLOBAL",
	}
}

func fmtCoord(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func candidate(id, city, province, country, code, region string, lat, lng float64, votes int64) Candidate {
	return Candidate{
		ID:          id,
		Name:        "cand-" + id,
		City:        city,
		Province:    province,
		Country:     country,
		Region:      region,
		CountryCode: code,
		Location:    &Location{Lat: lat, Lng: lng},
		Votes:       i64(votes),
		ClusterKeys: keysFor(city, province, country, region, lat, lng),
	}
}

// europeChannel：巴黎/里昂/柏林三个候选者
func europeChannel() *Channel {
	return &Channel{
		ID:   "ch-eu",
		Name: "Europe",
		Candidates: []Candidate{
			candidate("A", "Paris", "Ile-de-France", "France", "FR", "Europe", 48.8566, 2.3522, 100),
			candidate("B", "Lyon", "Auvergne-Rhone-Alpes", "France", "FR", "Europe", 45.764, 4.8357, 50),
			candidate("C", "Berlin", "Berlin", "Germany", "DE", "Europe", 52.52, 13.405, 25),
		},
	}
}

// mixedChannel：三种票数表示混用，多个候选者落在同一城市/同一坐标
func mixedChannel() *Channel {
	ch := &Channel{ID: "ch-mixed", Name: "Mixed"}
	add := func(c Candidate) { ch.Candidates = append(ch.Candidates, c) }
	add(candidate("p1", "Paris", "Ile-de-France", "France", "FR", "Europe", 48.85, 2.35, 40))
	c := candidate("p2", "Paris", "Ile-de-France", "France", "FR", "Europe", 48.86, 2.34, 0)
	c.Votes = nil
	c.VoteComponents = &VoteComponents{TestVotes: i64(1), RealVotes: i64(30), BonusVotes: i64(9)}
	add(c)
	c = candidate("p3", "Paris", "Ile-de-France", "France", "FR", "Europe", 48.85, 2.35, 0)
	c.Votes = nil
	c.VoteCount = i64(7)
	add(c)
	c = candidate("t1", "Tokyo", "Tokyo", "Japan", "JP", "Asia", 35.68, 139.69, 0)
	c.Votes = nil
	add(c)
	add(candidate("t2", "Osaka", "Osaka", "Japan", "JP", "Asia", 34.69, 135.5, 40))
	add(candidate("n1", "Austin", "Texas", "United States", "US", "North America", 30.27, -97.74, 12))
	add(candidate("n2", "Dallas", "Texas", "United States", "US", "North America", 32.78, -96.8, 12))
	return ch
}
