package poster

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"haulbot/internal/board"
)

// formatMessage renders the channel post as Telegram HTML. A formatting
// error is terminal for the entry; retrying a malformed payload cannot
// succeed.
func formatMessage(e board.Entry) (string, error) {
	if e.LoadID == "" {
		return "", errors.New("entry has no load id")
	}
	if len(e.Stops) == 0 {
		return "", fmt.Errorf("entry %s has no stops", e.LoadID)
	}

	var stops strings.Builder
	for i, stop := range e.Stops {
		if i > 0 {
			stops.WriteString("\n")
		}
		fmt.Fprintf(&stops, "  <b>Stop %d</b>: %s", i+1, html.EscapeString(stop))
	}

	msg := fmt.Sprintf(
		"<b>New Load Bid:</b> <code>%s</code>\n\n"+
			"<b>Distance:</b> %s\n\n"+
			"<b>Pickup:</b> %s\n"+
			"<b>Delivery:</b> %s\n\n"+
			"🚛<b>Stops:</b>\n%s",
		html.EscapeString(e.LoadID),
		html.EscapeString(e.Distance),
		html.EscapeString(e.PickupTime),
		html.EscapeString(e.DeliveryTime),
		stops.String(),
	)
	if e.StateCode != "" {
		msg += "\n\n#" + html.EscapeString(e.StateCode)
	}
	return msg, nil
}
