package feed

import (
	"errors"
	"fmt"
)

// Category classifies why a feed could not be loaded.
type Category string

const (
	// CategoryTransport covers DNS, connect and read failures.
	CategoryTransport Category = "transport"

	// CategoryStatus means the endpoint answered with a non-2xx status.
	CategoryStatus Category = "status"

	// CategoryRequest means the URL could not be turned into a request.
	CategoryRequest Category = "request"
)

// Message is the diagnostic shown to users when a feed fails to load.
const Message = "Could not load data from Google Sheet. Please check the URL and ensure it's published correctly as a CSV."

// FetchError wraps a failed feed load.
type FetchError struct {
	Category   Category
	URL        string
	StatusCode int
	Status     string
	Underlying error
}

func (e *FetchError) Error() string {
	switch {
	case e.Category == CategoryStatus:
		return fmt.Sprintf("feed %s [%s]: %s", e.URL, e.Category, e.Status)
	case e.Underlying != nil:
		return fmt.Sprintf("feed %s [%s]: %v", e.URL, e.Category, e.Underlying)
	}
	return fmt.Sprintf("feed %s [%s]", e.URL, e.Category)
}

func (e *FetchError) Unwrap() error { return e.Underlying }

// UserMessage returns the text for the error banner.
func (e *FetchError) UserMessage() string { return Message }

// StatusCode reports the HTTP status behind err, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
