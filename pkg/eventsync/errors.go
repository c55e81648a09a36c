package eventsync

import "errors"

// ErrWaitAborted indicates WaitContext returned before all syncs finished.
var ErrWaitAborted = errors.New("wait aborted with syncs in flight")
