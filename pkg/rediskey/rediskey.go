package rediskey

import "fmt"

const CommunityPrefix = "points:community"

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildCommunityKey returns "points:community:{communityID}", the sorted set
// holding every member score of one community.
func BuildCommunityKey(communityID int64) string {
	return NamespaceKey(CommunityPrefix, fmt.Sprintf("%d", communityID))
}

// Member encodes a user id as a fixed width sorted set member so lexical
// ordering of equal scores matches numeric ordering of ids.
func Member(userID int64) string {
	return fmt.Sprintf("%020d", userID)
}
