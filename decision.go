package gitrewrite

// Decision is the outcome for one commit in a rewrite: either keep the
// original message or substitute a new one. A slice of decisions is aligned
// 1:1, oldest first, with the commits returned by [GetLinearHistory].
type Decision struct {
	Replace bool
	Message string
}

// Keep returns a Decision that retains the commit's original message.
func Keep() Decision {
	return Decision{}
}

// Replace returns a Decision that substitutes the commit's message.
func Replace(message string) Decision {
	return Decision{Replace: true, Message: message}
}
