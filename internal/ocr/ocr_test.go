package ocr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const license = `NORTH CAROLINA
DRIVER LICENSE
DL: NC1234567
Name: Alex Johnson
DOB: 03/15/1990
123 Main Street
Raleigh NC 27601`

func TestExtractFields(t *testing.T) {
	f := ExtractFields(license)
	require.Equal(t, "Alex Johnson", f.Name)
	require.Equal(t, "03/15/1990", f.DOB)
	require.Equal(t, "123 Main Street", f.Address)
	require.Equal(t, "NC1234567", f.DocumentNumber)
}

func TestExtractFields_ShortDocNumberIgnored(t *testing.T) {
	f := ExtractFields("ID: 12\nNo: AB-99887")
	require.Equal(t, "AB-99887", f.DocumentNumber)
}

func TestExtractFields_Empty(t *testing.T) {
	require.Equal(t, Fields{}, ExtractFields(""))
}

func TestMatchScore(t *testing.T) {
	cases := []struct {
		name      string
		extracted Fields
		claimed   Claimed
		score     int
		matches   []string
		mismatch  []string
	}{
		{
			name:      "all match",
			extracted: Fields{Name: "Alex Johnson", DOB: "03/15/1990", Address: "123 Main Street"},
			claimed:   Claimed{Name: "alex johnson", DOB: "1990-03-15", Address: "123 Main St"},
			score:     67,
			matches:   []string{"Name", "Address"},
			mismatch:  []string{"Date of Birth"},
		},
		{
			name:      "dob digits only",
			extracted: Fields{DOB: "03/15/1990"},
			claimed:   Claimed{DOB: "03-15-1990"},
			score:     100,
			matches:   []string{"Date of Birth"},
			mismatch:  []string{},
		},
		{
			name:      "nothing comparable",
			extracted: Fields{Name: "Alex Johnson"},
			claimed:   Claimed{DOB: "03/15/1990"},
			score:     0,
			matches:   []string{},
			mismatch:  []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := MatchScore(tc.extracted, tc.claimed)
			require.Equal(t, tc.score, m.Score)
			require.Equal(t, tc.matches, m.Matches)
			require.Equal(t, tc.mismatch, m.Mismatches)
		})
	}
}

func TestVerdict(t *testing.T) {
	require.True(t, Verdict(70))
	require.False(t, Verdict(69))
}
