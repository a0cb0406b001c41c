// Package similarity scores how alike two normalized names are.
package similarity

import "strings"

// Ratio returns a similarity score in [0, 1] for two strings, case
// insensitive. The score is 2*M/T where M is the total length of the
// matching blocks found by repeatedly taking the longest common block
// and T the combined length. Either string empty yields 0.
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}

	matched := 0
	type span struct{ alo, ahi, blo, bhi int }
	stack := []span{{0, len(ra), 0, len(rb)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, j, size := longestMatch(ra, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if size == 0 {
			continue
		}
		matched += size
		stack = append(stack, span{s.alo, i, s.blo, j})
		stack = append(stack, span{i + size, s.ahi, j + size, s.bhi})
	}
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// longestMatch finds the longest block with ra[i:i+size] == rb[j:j+size]
// inside the given windows, preferring the earliest i and then the
// earliest j when sizes tie.
func longestMatch(ra []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[ra[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
