// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/marquee/internal/core/display"
)

// MessageText trims text and checks it is between 1 and
// display.MaxTextLength characters. The trimmed text is returned.
func MessageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", display.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > display.MaxTextLength {
		return "", fmt.Errorf("%w: %d characters exceeds limit of %d", display.ErrInvalidInput, n, display.MaxTextLength)
	}
	return text, nil
}
