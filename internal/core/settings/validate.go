package settings

import (
	"fmt"
	"slices"
	"unicode"

	"github.com/veloras/starboard/internal/setup/config"
)

// ValidationError reports a configuration edit that violates a bound.
// It is always recoverable by the caller (re-prompt), never fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Message)
}

// validationOrder fixes the order bounds are checked in, so the first
// reported violation is deterministic.
var validationOrder = []string{
	"webhook_name",
	"webhook_avatar",
	"required",
	"required_remove",
	"cooldown_period",
	"cooldown_count",
	"display_emoji",
}

// ValidateChanges enforces the per-field bounds on a proposed changes
// map. Unknown keys are rejected first (in sorted order), then bounds
// are checked in a fixed field order. The first violation found is
// returned.
func ValidateChanges(changes map[string]any, limits *config.Limits) error {
	unknown := make([]string, 0)

	for key := range changes {
		if !IsSettingKey(key) {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		slices.Sort(unknown)
		return &ValidationError{Field: unknown[0], Message: "no such setting"}
	}

	for _, key := range validationOrder {
		value, ok := changes[key]
		if !ok {
			continue
		}

		if err := validateField(key, value, limits); err != nil {
			return err
		}
	}

	return nil
}

func validateField(key string, value any, limits *config.Limits) error {
	switch key {
	case "webhook_name":
		return validateLen(key, value, limits.MaxWebhookNameLen)
	case "webhook_avatar":
		return validateLen(key, value, limits.MaxWebhookAvatarLen)
	case "required":
		return validateRange(key, value, limits.MinRequired, limits.MaxRequired)
	case "required_remove":
		return validateRange(key, value, limits.MinRequiredRemove, limits.MaxRequiredRemove)
	case "cooldown_period":
		return validateRange(key, value, 1, limits.MaxCooldownPeriod)
	case "cooldown_count":
		return validateRange(key, value, 1, limits.MaxCooldownCount)
	case "display_emoji":
		return validateEmoji(key, value)
	default:
		return nil
	}
}

func validateLen(key string, value any, maxLen int) error {
	s := optString(value)
	if s == nil {
		return nil
	}

	if len(*s) > maxLen {
		return &ValidationError{
			Field:   key,
			Message: fmt.Sprintf("cannot be longer than %d characters", maxLen),
		}
	}

	return nil
}

func validateRange(key string, value any, minValue, maxValue int) error {
	n := asInt(value)
	if n < minValue || n > maxValue {
		return &ValidationError{
			Field:   key,
			Message: fmt.Sprintf("must be at least %d and at most %d", minValue, maxValue),
		}
	}

	return nil
}

func validateEmoji(key string, value any) error {
	s := optString(value)
	if s == nil {
		return nil
	}

	if isAlphanumeric(*s) || isEmoji(*s) {
		return nil
	}

	return &ValidationError{
		Field:   key,
		Message: fmt.Sprintf("%s is not a valid emoji", *s),
	}
}

// isAlphanumeric accepts custom emoji ids, which are stored as their
// numeric id string.
func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// isEmoji reports whether every rune of the string belongs to the
// Unicode emoji blocks (plus the joiners and modifiers composed emojis
// are built from).
func isEmoji(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !isEmojiRune(r) {
			return false
		}
	}

	return true
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji planes
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2190 && r <= 0x21FF: // arrows
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // misc symbols and arrows
		return true
	case r == 0x200D: // zero-width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x20E3: // combining keycap
		return true
	case r == '#' || r == '*' || (r >= '0' && r <= '9'): // keycap bases
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	default:
		return false
	}
}
