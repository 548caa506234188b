package cli

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/eventphotos/internal/client/client"
	"github.com/dmitrijs2005/eventphotos/internal/common"
)

// describe turns a command failure into a line for the terminal.
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Details) > 0 {
			parts := make([]string, 0, len(apiErr.Details))
			for _, d := range apiErr.Details {
				parts = append(parts, d.Field+" "+d.Message)
			}
			return apiErr.Message + ": " + strings.Join(parts, "; ")
		}
		if apiErr.Status == http.StatusUnauthorized && apiErr.Message != "" {
			return apiErr.Message
		}
	}

	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, client.ErrUnauthorized):
		return "not logged in"
	case errors.Is(err, common.ErrRateLimited):
		return "too many requests, try again later"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	case errors.Is(err, common.ErrorForbidden):
		return "not allowed"
	}
	return err.Error()
}
