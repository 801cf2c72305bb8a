package monitor

var (
	noCodesMsg       = "No betting codes or platforms found in your message. Please include codes and specify platforms."
	clarificationMsg = "Please specify the original and target platforms for code(s): %s"
	convertedReply   = "Converted codes: %s"
	convertedPart    = "%s %s to %s: %s"
	failedPart       = "%s %s: %s"
)
