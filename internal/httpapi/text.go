package httpapi

import (
	"fmt"

	"github.com/park285/dambrete/internal/room"
)

// The PNG HUD uses basicfont, which only has ASCII glyphs, so these lines
// stay out of the message catalog.

func headerLine(sess *room.Session) string {
	return fmt.Sprintf("Room %s  game %d", sess.ID, sess.Games)
}

func statusLine(sess *room.Session) string {
	switch sess.Status {
	case room.StatusFinished:
		return fmt.Sprintf("%s wins (%s)", sess.Winner, sess.Reason)
	case room.StatusWaiting:
		return "waiting for opponent"
	}
	if sess.Game.Pending != nil {
		return fmt.Sprintf("%s continues capture", sess.Game.Turn)
	}
	return fmt.Sprintf("%s to move", sess.Game.Turn)
}
