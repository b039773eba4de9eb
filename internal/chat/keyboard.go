// Package chat defines transport-neutral message primitives shared by the
// delivery engine, the interaction controller, and the deletion scheduler:
// inline keyboards and the callback payload format carried by their buttons.
//
// Keeping these types free of any concrete Bot API dependency lets every
// consumer declare its own narrow transport interface while still agreeing
// on what a button is and what its payload means.
package chat

import "strings"

// Button is one inline keyboard button. Exactly one of URL or Data should
// be set: URL buttons open a link, Data buttons fire a callback carrying
// the payload.
type Button struct {
	Text string
	URL  string
	Data string
}

// Keyboard is an inline keyboard: rows of buttons.
type Keyboard [][]Button

// Callback actions understood by the interaction controller.
const (
	// ActionJoined is pressed on the gate prompt after the user joined
	// the required channels.
	ActionJoined = "joined"
	// ActionResend re-delivers the content key embedded in the payload.
	ActionResend = "resend"
	// ActionClose dismisses the message carrying the button.
	ActionClose = "close"
)

// Payload encodes an action and an optional content key as a callback
// payload ("action:key", or just "action" when key is empty).
func Payload(action, key string) string {
	if key == "" {
		return action
	}
	return action + ":" + key
}

// ParsePayload splits a callback payload into its action and key parts.
// Payloads without a key yield an empty key. The key itself may contain
// colons; only the first separator is significant.
func ParsePayload(data string) (action, key string) {
	action, key, _ = strings.Cut(data, ":")
	return action, key
}

// URLButton builds a link-opening button.
func URLButton(text, url string) Button { return Button{Text: text, URL: url} }

// DataButton builds a callback button with the given payload.
func DataButton(text, data string) Button { return Button{Text: text, Data: data} }
