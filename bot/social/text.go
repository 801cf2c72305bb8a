package social

// TruncateReply trims a reply to the transport's message limit, ending the
// text with an ellipsis when anything was cut. Limits count characters, not
// bytes.
func TruncateReply(text string, limit int) string {
	if limit <= 3 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
