package conversation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength   = 256
	maxContentLength = 200_000
)

func validateOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("owner id is required")
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("title must be at most %d characters", maxTitleLength)
	}
	return nil
}

func validateMessage(role Role, content string) error {
	if !role.Valid() {
		return fmt.Errorf("role must be one of user, assistant, system; got %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("content is required")
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("content must be at most %d bytes", maxContentLength)
	}
	return nil
}
