package pipeline

import (
	"math/rand"
	"sort"

	"github.com/drakos74/impulse/internal/model"
)

// Sample draws n users stratified by risk band.
// Every band present gets a share proportional to its size and at least one user while n allows,
// the remainder is topped up from the users left over. The sample is sorted by card id.
func Sample(users []model.User, n int, seed int64) []model.User {
	if n <= 0 {
		return []model.User{}
	}
	if n >= len(users) {
		all := make([]model.User, len(users))
		copy(all, users)
		sortUsers(all)
		return all
	}

	rnd := rand.New(rand.NewSource(seed))
	strata := make(map[model.Band][]model.User)
	for _, u := range users {
		strata[u.Band] = append(strata[u.Band], u)
	}
	for _, b := range model.Bands {
		s := strata[b]
		sortUsers(s)
		rnd.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	}

	quota := make(map[model.Band]int, len(model.Bands))
	var assigned int
	for _, b := range model.Bands {
		size := len(strata[b])
		if size == 0 {
			continue
		}
		q := n * size / len(users)
		if q == 0 && assigned < n {
			q = 1
		}
		quota[b] = q
		assigned += q
	}
	// excess goes back from the largest quota, the lowest band first on ties
	for assigned > n {
		var largest model.Band
		for _, b := range model.Bands {
			if quota[b] > 0 && (largest == "" || quota[b] > quota[largest]) {
				largest = b
			}
		}
		quota[largest]--
		assigned--
	}

	sample := make([]model.User, 0, n)
	rest := make([]model.User, 0, len(users))
	for _, b := range model.Bands {
		s := strata[b]
		sample = append(sample, s[:quota[b]]...)
		rest = append(rest, s[quota[b]:]...)
	}
	rnd.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	sample = append(sample, rest[:n-len(sample)]...)
	sortUsers(sample)
	return sample
}

func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].CardID < users[j].CardID
	})
}
