// Package application contains use-case orchestration services: resource
// syncing, identity clustering, score aggregation, and the operation worker.
package application

import (
	"strings"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// matchThreshold is the minimum blended similarity for two identity strings
// to be considered the same person. Comparisons are strictly greater-than,
// so a score of exactly 0.6 does not match.
const matchThreshold = 0.6

// lcsScore rates how alike two strings are by their longest common
// subsequence: 0.5 * lcs * (1/len(s1) + 1/len(s2)). Returns -1 when either
// string is empty, which no threshold comparison can accept.
func lcsScore(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return -1
	}

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	return 0.5 * float64(dp[n][m]) * (1/float64(n) + 1/float64(m))
}

// letterFreqScore rates two strings by shared letter frequency: the
// character counts of s1 are greedily consumed by the characters of s2 in
// order. The greedy consumption makes the function asymmetric in general;
// that asymmetry is part of the scoring contract and must not be averaged
// away.
func letterFreqScore(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0
	}

	counts := make(map[rune]int, n)
	for _, r := range a {
		counts[r]++
	}

	matched := 0
	for _, r := range b {
		if counts[r] > 0 {
			counts[r]--
			matched++
		}
	}

	return 0.5 * float64(matched) * (1/float64(n) + 1/float64(m))
}

// similarity blends the two metrics, weighting subsequence structure over
// raw letter overlap.
func similarity(s1, s2 string) float64 {
	return 0.3*letterFreqScore(s1, s2) + 0.7*lcsScore(s1, s2)
}

// emailLocalPart returns the part of an email address before the @, or the
// whole string when it has none.
func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

// BestMatchedMember finds the member most alike the given author identity.
// Both the author's name and the email local-part are scored against both
// the member's username and display name, lowercased; the maximum of the
// four combinations is the member's score. Returns nil when no member
// scores above the match threshold. Ties keep the first-found maximum, so
// the result is stable in members order.
func BestMatchedMember(author model.AuthorResource, members []model.Member) *model.Member {
	name := strings.ToLower(author.AuthorName)
	local := strings.ToLower(emailLocalPart(author.AuthorEmail))

	var best *model.Member
	bestScore := matchThreshold
	for i := range members {
		username := strings.ToLower(members[i].Resource.Username)
		display := strings.ToLower(members[i].Resource.Name)

		score := similarity(name, username)
		if s := similarity(name, display); s > score {
			score = s
		}
		if s := similarity(local, username); s > score {
			score = s
		}
		if s := similarity(local, display); s > score {
			score = s
		}

		if score > bestScore {
			bestScore = score
			best = &members[i]
		}
	}
	return best
}
