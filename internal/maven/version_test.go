package maven

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortVersionsDescending(t *testing.T) {
	versions := []string{"1.0.0", "1.2.0", "1.10.0", "2.0.0+build5"}
	SortVersions(versions, true)
	require.Equal(t, []string{"2.0.0+build5", "1.10.0", "1.2.0", "1.0.0"}, versions)
}

func TestSortVersionsAscending(t *testing.T) {
	versions := []string{"1.10", "1.9.1", "1.9", "0.1"}
	SortVersions(versions, false)
	require.Equal(t, []string{"0.1", "1.9", "1.9.1", "1.10"}, versions)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0.0", 0},
		{"1.0.0+a", "1.0.0+b", 0},
		{"1.0.1", "1.0", 1},
		{"2", "10", -1},
		{"1.0", "1.0-SNAPSHOT", 1},
		{"1.0-alpha", "1.0-beta", -1},
		{"1.x", "1.0", -1},
		{"99999999999999999999.0", "99999999999999999998.9", 1},
		{"1.01", "1.1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			require.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
			require.Equal(t, -tt.want, CompareVersions(tt.b, tt.a))
		})
	}
}

func TestSortVersionsDeterministicTies(t *testing.T) {
	versions := []string{"1.0.0", "1.0", "1"}
	SortVersions(versions, true)
	require.Equal(t, []string{"1.0.0", "1.0", "1"}, versions)
}
