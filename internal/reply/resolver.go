// Package reply implements the deterministic reply-resolution rules for
// inbound messages. Resolution is a pure function of the message text: no
// state, no external calls, and every input maps to exactly one non-empty
// reply.
package reply

import (
	"fmt"
	"strings"
)

const menuReply = `👋 Hello! Welcome to MyBot!

How can I help you today?

1️⃣ About Us
2️⃣ Contact Support
3️⃣ Help`

const aboutReply = `📖 About Us

We are a demo WhatsApp bot built on the WhatsApp Cloud API.

Send *hi* to see the menu again.`

const supportReply = `📞 Contact Support

Email: support@example.com
Phone: +1234567890

Send *hi* for menu.`

const helpReply = `❓ Help Menu

• hi → Main menu
• 1 → About us
• 2 → Support
• 3 → Help

Try it now 🙂`

// Resolve maps inbound message text to the reply that should be sent back.
// Matching is case-insensitive and ignores surrounding whitespace. Rules are
// checked in order: greeting substrings first, then the menu selections, and
// anything else gets an echo with a menu hint. The greeting check is a
// substring match, so it wins over the exact-match rules below it.
func Resolve(text string) string {
	msg := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(msg, "hi"), strings.Contains(msg, "hello"), strings.Contains(msg, "hey"):
		return menuReply
	case msg == "1", strings.Contains(msg, "about"):
		return aboutReply
	case msg == "2", strings.Contains(msg, "support"):
		return supportReply
	case msg == "3", strings.Contains(msg, "help"):
		return helpReply
	default:
		return fmt.Sprintf("🤖 I received: %q\n\nSend *hi* to see available options.", strings.TrimSpace(text))
	}
}
