package vault

import "fmt"

// Credentials is the plaintext record kept encrypted by the Vault.
// The zero value (all empty, dark mode off) means "not configured".
type Credentials struct {
	APIKey      string `json:"apiKey"`
	HostURL     string `json:"hostUrl"`
	AssistantID string `json:"assistantId"`
	DarkMode    bool   `json:"darkMode"`
}

// IsZero reports whether c equals the zero-value credentials.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// String never prints the API key.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{HostURL:%q AssistantID:%q DarkMode:%t APIKey:%s}",
		c.HostURL, c.AssistantID, c.DarkMode, MaskSecret(c.APIKey))
}

// MaskSecret masks sensitive values, showing only last 4 characters
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
