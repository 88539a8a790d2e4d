package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/semmy-space/pinechat/internal/vault"
)

// APIKeyPrefix is the prefix every assistant API key carries
const APIKeyPrefix = "pcsk_"

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid settings")

// Validate checks that c is complete enough to reach the assistant.
// All violations are reported together.
func Validate(c vault.Credentials) error {
	var errs []error

	apiKey := strings.TrimSpace(c.APIKey)
	switch {
	case apiKey == "":
		errs = append(errs, fmt.Errorf("%w: api key is required", ErrInvalid))
	case !strings.HasPrefix(apiKey, APIKeyPrefix):
		errs = append(errs, fmt.Errorf("%w: api key must start with %q", ErrInvalid, APIKeyPrefix))
	}

	hostURL := strings.TrimSpace(c.HostURL)
	if hostURL == "" {
		errs = append(errs, fmt.Errorf("%w: host url is required", ErrInvalid))
	} else if !isAbsoluteURL(hostURL) {
		errs = append(errs, fmt.Errorf("%w: host url %q is not a valid URL", ErrInvalid, hostURL))
	}

	if strings.TrimSpace(c.AssistantID) == "" {
		errs = append(errs, fmt.Errorf("%w: assistant id is required", ErrInvalid))
	}

	return errors.Join(errs...)
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// normalize trims surrounding whitespace from the string fields.
func normalize(c vault.Credentials) vault.Credentials {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.HostURL = strings.TrimSpace(c.HostURL)
	c.AssistantID = strings.TrimSpace(c.AssistantID)
	return c
}
