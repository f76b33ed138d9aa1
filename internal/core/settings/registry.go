// Package settings computes the effective configuration of a starboard
// for a given channel by layering the starboard's stored fields with
// any applicable overrides, and validates proposed configuration edits.
package settings

import (
	"fmt"

	"github.com/veloras/starboard/internal/database/types"
)

// fieldAccessor binds one configurable field name to a getter and a
// setter over the starboard row. Override deltas use the same names, so
// the accessor table is the single source of truth for the
// configurable-field set.
type fieldAccessor struct {
	get func(sb *types.Starboard) any
	set func(sb *types.Starboard, v any)
}

// registry is the typed field-accessor table. Override delta keys are a
// strict subset of these names; requesting anything else is a
// programming error.
var registry = map[string]fieldAccessor{
	// Appearance
	"color": {
		get: func(sb *types.Starboard) any { return sb.Color },
		set: func(sb *types.Starboard, v any) { sb.Color = asInt(v) },
	},
	"display_emoji": {
		get: func(sb *types.Starboard) any { return sb.DisplayEmoji },
		set: func(sb *types.Starboard, v any) { sb.DisplayEmoji = asOptString(v) },
	},
	"ping_author": {
		get: func(sb *types.Starboard) any { return sb.PingAuthor },
		set: func(sb *types.Starboard, v any) { sb.PingAuthor = asBool(v) },
	},
	"use_server_profile": {
		get: func(sb *types.Starboard) any { return sb.UseServerProfile },
		set: func(sb *types.Starboard, v any) { sb.UseServerProfile = asBool(v) },
	},
	"extra_embeds": {
		get: func(sb *types.Starboard) any { return sb.ExtraEmbeds },
		set: func(sb *types.Starboard, v any) { sb.ExtraEmbeds = asBool(v) },
	},
	"use_webhook": {
		get: func(sb *types.Starboard) any { return sb.UseWebhook },
		set: func(sb *types.Starboard, v any) { sb.UseWebhook = asBool(v) },
	},
	"webhook_name": {
		get: func(sb *types.Starboard) any { return sb.WebhookName },
		set: func(sb *types.Starboard, v any) { sb.WebhookName = asString(v) },
	},
	"webhook_avatar": {
		get: func(sb *types.Starboard) any { return sb.WebhookAvatar },
		set: func(sb *types.Starboard, v any) { sb.WebhookAvatar = asOptString(v) },
	},

	// Requirements
	"required": {
		get: func(sb *types.Starboard) any { return sb.Required },
		set: func(sb *types.Starboard, v any) { sb.Required = asInt(v) },
	},
	"required_remove": {
		get: func(sb *types.Starboard) any { return sb.RequiredRemove },
		set: func(sb *types.Starboard, v any) { sb.RequiredRemove = asInt(v) },
	},
	"upvote_emojis": {
		get: func(sb *types.Starboard) any { return sb.UpvoteEmojis },
		set: func(sb *types.Starboard, v any) { sb.UpvoteEmojis = asStringSlice(v) },
	},
	"self_vote": {
		get: func(sb *types.Starboard) any { return sb.SelfVote },
		set: func(sb *types.Starboard, v any) { sb.SelfVote = asBool(v) },
	},
	"allow_bots": {
		get: func(sb *types.Starboard) any { return sb.AllowBots },
		set: func(sb *types.Starboard, v any) { sb.AllowBots = asBool(v) },
	},
	"require_image": {
		get: func(sb *types.Starboard) any { return sb.RequireImage },
		set: func(sb *types.Starboard, v any) { sb.RequireImage = asBool(v) },
	},

	// Behavior
	"enabled": {
		get: func(sb *types.Starboard) any { return sb.Enabled },
		set: func(sb *types.Starboard, v any) { sb.Enabled = asBool(v) },
	},
	"autoreact": {
		get: func(sb *types.Starboard) any { return sb.Autoreact },
		set: func(sb *types.Starboard, v any) { sb.Autoreact = asBool(v) },
	},
	"remove_invalid": {
		get: func(sb *types.Starboard) any { return sb.RemoveInvalid },
		set: func(sb *types.Starboard, v any) { sb.RemoveInvalid = asBool(v) },
	},
	"link_deletes": {
		get: func(sb *types.Starboard) any { return sb.LinkDeletes },
		set: func(sb *types.Starboard, v any) { sb.LinkDeletes = asBool(v) },
	},
	"link_edits": {
		get: func(sb *types.Starboard) any { return sb.LinkEdits },
		set: func(sb *types.Starboard, v any) { sb.LinkEdits = asBool(v) },
	},
	"private": {
		get: func(sb *types.Starboard) any { return sb.Private },
		set: func(sb *types.Starboard, v any) { sb.Private = asBool(v) },
	},
	"cooldown_enabled": {
		get: func(sb *types.Starboard) any { return sb.CooldownEnabled },
		set: func(sb *types.Starboard, v any) { sb.CooldownEnabled = asBool(v) },
	},
	"cooldown_count": {
		get: func(sb *types.Starboard) any { return sb.CooldownCount },
		set: func(sb *types.Starboard, v any) { sb.CooldownCount = asInt(v) },
	},
	"cooldown_period": {
		get: func(sb *types.Starboard) any { return sb.CooldownPeriod },
		set: func(sb *types.Starboard, v any) { sb.CooldownPeriod = asInt(v) },
	},
}

// IsSettingKey reports whether name is a configurable field.
func IsSettingKey(name string) bool {
	_, ok := registry[name]
	return ok
}

// ApplyChanges writes a validated changes map onto a starboard row.
// Callers must run ValidateChanges first; an unknown key here is a
// programming error.
func ApplyChanges(sb *types.Starboard, changes map[string]any) {
	for key, value := range changes {
		accessor, ok := registry[key]
		if !ok {
			panic(fmt.Sprintf("settings: unknown setting %q", key))
		}

		accessor.set(sb, value)
	}
}

// Coercion helpers. Override deltas round-trip through JSONB, so
// numbers arrive as float64 and arrays as []any.

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		panic(fmt.Sprintf("settings: cannot coerce %T to int", v))
	}
}

func asBool(v any) bool {
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("settings: cannot coerce %T to bool", v))
	}

	return b
}

func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("settings: cannot coerce %T to string", v))
	}

	return s
}

func asOptString(v any) *string {
	if v == nil {
		return nil
	}

	s := asString(v)

	return &s
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, asString(item))
		}

		return out
	default:
		panic(fmt.Sprintf("settings: cannot coerce %T to string slice", v))
	}
}
