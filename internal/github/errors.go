package github

import (
	"errors"
	"net/http"

	gh "github.com/google/go-github/v72/github"
)

// IsValidationFailed reports whether err is a 422 response. GitHub answers
// 422 when a ref being created already exists.
func IsValidationFailed(err error) bool {
	var resp *gh.ErrorResponse
	return errors.As(err, &resp) && resp.Response != nil &&
		resp.Response.StatusCode == http.StatusUnprocessableEntity
}
