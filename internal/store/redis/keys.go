package redis

const (
	// KeyPrefixRecord is the prefix for memento records (JSON)
	KeyPrefixRecord = "memento:record:"
	// KeyPrefixTimeline is the prefix for per-URI-R sorted sets (score = unix seconds, member = ID)
	KeyPrefixTimeline = "memento:timeline:"
	// KeyOriginals is the key for the set of all original URLs
	KeyOriginals = "memento:originals"
)

// RecordKey returns the Redis key for a memento by ID
func RecordKey(id string) string {
	return KeyPrefixRecord + id
}

// TimelineKey returns the Redis key for the timeline of an original URL
func TimelineKey(urir string) string {
	return KeyPrefixTimeline + urir
}

// OriginalsKey returns the key for the set of all original URLs
func OriginalsKey() string {
	return KeyOriginals
}

