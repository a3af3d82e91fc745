package rediskey

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCommunityKey(t *testing.T) {
	require.Equal(t, "points:community:7", BuildCommunityKey(7))
}

func TestMemberOrdersNumerically(t *testing.T) {
	ids := []int64{1000, 9, 42, 123456789012345678}
	members := make([]string, 0, len(ids))
	for _, id := range ids {
		members = append(members, Member(id))
	}
	sort.Strings(members)

	got := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		require.NoError(t, err)
		got = append(got, id)
	}
	require.Equal(t, []int64{9, 42, 1000, 123456789012345678}, got)
}
