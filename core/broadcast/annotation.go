package broadcast

import "strconv"

// Annotation rewrites an outgoing message using the queue length observed
// right after the message was removed from the queue.
type Annotation func(text string, backlog int) string

// BacklogSuffix returns an Annotation appending " backlog <component> <n>".
func BacklogSuffix(component string) Annotation {
	return func(text string, backlog int) string {
		return text + " backlog " + component + " " + strconv.Itoa(backlog)
	}
}
