package feed

const maxPayloadExcerpt = 120

// topLevels returns at most depth levels in the order received.
func topLevels(levels []Level, depth int) []Level {
	if depth < 0 {
		depth = 0
	}
	if len(levels) > depth {
		return levels[:depth]
	}
	return levels
}

func excerpt(payload []byte) string {
	if len(payload) > maxPayloadExcerpt {
		return string(payload[:maxPayloadExcerpt]) + "..."
	}
	return string(payload)
}
