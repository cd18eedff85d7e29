package results

import (
	"fmt"
	"strings"

	"github.com/park285/dambrete/internal/room"
)

// MoveText groups accepted steps into moves in Russian notation: "c3-d4" for
// a step, "c3:e5:g3" for a capture chain.
func MoveText(history []room.MoveRecord) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, rec := range history {
		if cur.Len() == 0 {
			cur.WriteString(rec.From.Algebraic())
		}
		if rec.Capture {
			cur.WriteByte(':')
		} else {
			cur.WriteByte('-')
		}
		cur.WriteString(rec.To.Algebraic())
		if !rec.Continues {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// GameText numbers the moves, White first: "1. c3-d4 f6-g5 2. ...", and
// appends the result token.
func GameText(moves []string, winner string) string {
	var b strings.Builder
	for i := 0; i < len(moves); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, moves[i]))
		if i+1 < len(moves) {
			b.WriteString(" ")
			b.WriteString(moves[i+1])
		}
		b.WriteString(" ")
	}
	b.WriteString(resultToken(winner))
	return b.String()
}

func resultToken(winner string) string {
	switch winner {
	case "white":
		return "2-0"
	case "black":
		return "0-2"
	default:
		return "*"
	}
}
