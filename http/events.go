package http

// ExpectationFailedEvent is fired through the pipeline after a request expectation was
// rejected. The decoder resets itself if it's still waiting for the body, as the peer
// isn't going to send it.
type ExpectationFailedEvent struct{}

var ExpectationFailed = ExpectationFailedEvent{}
