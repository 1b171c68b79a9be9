package domain

import "time"

// StatusProbeFailed is recorded when the probe got no HTTP response at all.
const StatusProbeFailed = -1

type Signal struct {
	URL        string    `json:"url"`
	HTTPStatus int       `json:"http_status"`
	Available  bool      `json:"available"`
	Received   time.Time `json:"received"`
}

// SignalGroup is the API shape: all records of one URL, oldest first.
type SignalGroup struct {
	URL     string   `json:"url"`
	Records []Signal `json:"records"`
}

// Available reports whether a received status code counts as "up".
func Available(status int) bool {
	return status >= 200 && status < 400
}

// NewSignal builds an unpersisted signal; Received is left for the store.
func NewSignal(url string, status int) Signal {
	return Signal{
		URL:        url,
		HTTPStatus: status,
		Available:  status != StatusProbeFailed && Available(status),
	}
}

// FailedSignal is the record written when the HEAD request never completed.
func FailedSignal(url string) Signal {
	return Signal{URL: url, HTTPStatus: StatusProbeFailed}
}
