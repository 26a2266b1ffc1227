// Package feature models plan feature maps as a small tagged union.
//
// Subscription plans attach a free-form map of named capabilities: boolean
// toggles ("featured": true), integer quantity limits ("appointments": 1000,
// -1 meaning unlimited), or nested groups of sub-features ("reminders":
// {"email": true, "sms": 50}). The shape is plan-defined and not validated
// against a fixed schema, so this package makes the three possible shapes
// explicit instead of passing untyped nested maps around.
//
// # Usage
//
//	features := feature.Map{
//		"appointments": feature.Limit(1000),
//		"featured":     feature.Flag(false),
//		"reminders": feature.Group(map[string]feature.Value{
//			"email": feature.Flag(true),
//			"sms":   feature.Limit(50),
//		}),
//	}
//
//	if v, ok := features.Get("appointments"); ok && v.Allows(current+1) {
//		// there is room for one more
//	}
//
// Values round-trip through JSON (jsonb plan rows) and YAML (plan catalog
// files): booleans decode to flags, integers to limits, mappings to groups.
// Anything else is rejected with ErrInvalidValue.
package feature
