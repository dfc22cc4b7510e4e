/* external.go
 * Contains the HTTP plumbing shared by the ranking, player and document fetchers. Every request carries a user
 * agent, accepts gzip and is bounded by the client's timeout and the caller's context
 */

package external

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// ErrUnexpectedStatus is returned for any non 200 response
var ErrUnexpectedStatus = errors.New("unexpected status code")

// NewHTTPClient returns a client with the given timeout. Zero means no timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewLimiter returns a limiter allowing one request per interval. A zero interval disables limiting
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Function to fetch the body of a url. Handles gzip encoded responses
// Preconditions: Receives context, http client, url and the user agent to send (may be empty)
// Postconditions: Returns the decoded body, or an error for transport failures, non 200 responses and read failures
func fetchBody(ctx context.Context, client *http.Client, url string, userAgent string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating request for %s", url)
	}

	if userAgent != "" {
		request.Header.Set("User-Agent", userAgent)
	}
	request.Header.Set("Accept-Encoding", "gzip")

	response, err := client.Do(request)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", url)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUnexpectedStatus, "%s returned %d", url, response.StatusCode)
	}

	var reader io.Reader = response.Body
	if response.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(response.Body)
		if err != nil {
			return nil, errors.Wrap(err, "creating gzip reader")
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "reading response from %s", url)
	}
	return body, nil
}
