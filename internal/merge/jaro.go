package merge

// JaroWinkler scores the similarity of two strings in [0,1]. Matching runs
// over runes with a window of max(len)/2-1 and a prefix bonus of 0.1 per
// shared leading rune, up to four.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}
	r1, r2 := []rune(a), []rune(b)
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	window := max(len(r1), len(r2))/2 - 1
	if window < 0 {
		window = 0
	}

	m1 := make([]bool, len(r1))
	m2 := make([]bool, len(r2))
	matches := 0
	for i := range r1 {
		lo, hi := max(0, i-window), min(len(r2), i+window+1)
		for j := lo; j < hi; j++ {
			if m2[j] || r1[i] != r2[j] {
				continue
			}
			m1[i], m2[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := range r1 {
		if !m1[i] {
			continue
		}
		for !m2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len(r1)) + m/float64(len(r2)) + (m-float64(transpositions)/2)/m) / 3

	prefix := 0
	for prefix < 4 && prefix < len(r1) && prefix < len(r2) && r1[prefix] == r2[prefix] {
		prefix++
	}
	return jaro + 0.1*float64(prefix)*(1-jaro)
}
