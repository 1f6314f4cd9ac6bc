package application

import (
	"testing"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCSScore(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		want float64
	}{
		{name: "identical", s1: "jdoe", s2: "jdoe", want: 1.0},
		{name: "empty first", s1: "", s2: "jdoe", want: -1},
		{name: "empty second", s1: "jdoe", s2: "", want: -1},
		{name: "no overlap", s1: "abc", s2: "xyz", want: 0},
		{name: "subsequence", s1: "jane", s2: "jdoe", want: 0.5}, // lcs "je" = 2
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, lcsScore(tt.s1, tt.s2), 1e-9)
		})
	}
}

func TestLetterFreqScore(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		want float64
	}{
		{name: "identical", s1: "jdoe", s2: "jdoe", want: 1.0},
		{name: "empty", s1: "", s2: "jdoe", want: 0},
		{name: "anagram", s1: "doej", s2: "jdoe", want: 1.0},
		{name: "partial", s1: "jane", s2: "jxxx", want: 0.25}, // 1 match, both len 4
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, letterFreqScore(tt.s1, tt.s2), 1e-9)
		})
	}
}

// The greedy frequency consumption makes the blend order-dependent; the
// asymmetry is part of the contract.
func TestSimilarity_Asymmetric(t *testing.T) {
	forward := letterFreqScore("aab", "aba")
	backward := letterFreqScore("aba", "aab")
	assert.InDelta(t, forward, backward, 1e-9, "anagrams still symmetric")

	// Identical strings score a perfect 1.0 through the blend.
	assert.InDelta(t, 1.0, similarity("jdoe", "jdoe"), 1e-9)

	// Empty strings poison the blend through the -1 lcs signal.
	assert.Less(t, similarity("", "jdoe"), 0.0)
}

func TestBestMatchedMember_LinksCloseIdentity(t *testing.T) {
	members := []model.Member{
		{ID: 1, Resource: model.MemberResource{Username: "zzz", Name: "Bob Smith"}},
		{ID: 2, Resource: model.MemberResource{Username: "jdoe", Name: "Jane Doe"}},
	}

	author := model.AuthorResource{AuthorName: "Jane Doe", AuthorEmail: "jdoe@example.com"}
	got := BestMatchedMember(author, members)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestBestMatchedMember_RejectsWeakMatch(t *testing.T) {
	members := []model.Member{
		{ID: 1, Resource: model.MemberResource{Username: "zzz", Name: "Bob Smith"}},
	}

	author := model.AuthorResource{AuthorName: "Jane Doe", AuthorEmail: "unrelated@x.com"}
	assert.Nil(t, BestMatchedMember(author, members))
}

func TestBestMatchedMember_NoMembers(t *testing.T) {
	author := model.AuthorResource{AuthorName: "Jane Doe", AuthorEmail: "jdoe@example.com"}
	assert.Nil(t, BestMatchedMember(author, nil))
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "jdoe", emailLocalPart("jdoe@example.com"))
	assert.Equal(t, "jdoe", emailLocalPart("jdoe"))
	assert.Equal(t, "", emailLocalPart("@example.com"))
}
