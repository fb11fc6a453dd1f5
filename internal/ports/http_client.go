package ports

import "net/http"

// HTTPClient is the subset of *http.Client used by the robot REST adapter.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
