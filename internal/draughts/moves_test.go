package draughts

import (
	"reflect"
	"testing"
)

func TestOpeningMoves(t *testing.T) {
	b := NewBoard()
	ms := LegalMoves(&b, White)
	if ms.MustCapture || ms.Chained {
		t.Fatalf("opening must be free, got %+v", ms)
	}
	if got := ms.Count(); got != 7 {
		t.Fatalf("white opening move count=%d want 7", got)
	}
	want := []Square{Sq(5, 0), Sq(5, 2), Sq(5, 4), Sq(5, 6)}
	if got := ms.Origins(); !reflect.DeepEqual(got, want) {
		t.Fatalf("origins=%v want %v", got, want)
	}
	if !ms.Allows(Sq(5, 0), Sq(4, 1)) {
		t.Fatalf("5,0 -> 4,1 must be allowed")
	}
	if ms.Allows(Sq(5, 0), Sq(6, 1)) {
		t.Fatalf("occupied square allowed")
	}
}

func TestBlackSingleManMustCapture(t *testing.T) {
	var b Board
	b.Set(Sq(2, 3), Piece{Side: Black})
	b.Set(Sq(3, 4), Piece{Side: White})
	ms := LegalMoves(&b, Black)
	if !ms.MustCapture || ms.MaxCaptures != 1 {
		t.Fatalf("expected mandatory single capture, got %+v", ms)
	}
	want := map[Square][]Square{Sq(2, 3): {Sq(4, 5)}}
	if !reflect.DeepEqual(ms.Moves, want) {
		t.Fatalf("moves=%v want %v", ms.Moves, want)
	}
}

// globalMaxBoard gives White a one-capture man on 5,0 and a two-capture man
// on 7,2.
func globalMaxBoard(t *testing.T) Board {
	return mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		".b...b..",
		"w.......",
		"...b....",
		"..w.....",
	)
}

func TestMaximumCaptureIsGlobal(t *testing.T) {
	b := globalMaxBoard(t)
	if got := CaptureSequences(&b, Sq(5, 0)); len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("5,0 should have a single one-step capture, got %v", got)
	}
	ms := LegalMoves(&b, White)
	if ms.MaxCaptures != 2 {
		t.Fatalf("MaxCaptures=%d want 2", ms.MaxCaptures)
	}
	want := map[Square][]Square{Sq(7, 2): {Sq(5, 4)}}
	if !reflect.DeepEqual(ms.Moves, want) {
		t.Fatalf("moves=%v want %v", ms.Moves, want)
	}
	seqs := ms.Sequences(Sq(7, 2))
	if !reflect.DeepEqual(seqs, []Sequence{{Sq(5, 4), Sq(3, 6)}}) {
		t.Fatalf("sequences=%v", seqs)
	}
	seqs[0][0] = Sq(0, 1)
	if ms.Sequences(Sq(7, 2))[0][0] != Sq(5, 4) {
		t.Fatalf("Sequences must return a copy")
	}
}

func TestKingSimpleMovesSlide(t *testing.T) {
	var b Board
	b.Set(Sq(7, 0), Piece{Side: White, Rank: King})
	b.Set(Sq(4, 3), Piece{Side: White})
	ms := LegalMoves(&b, White)
	want := []Square{Sq(5, 2), Sq(6, 1)}
	if got := ms.Moves[Sq(7, 0)]; !reflect.DeepEqual(got, want) {
		t.Fatalf("king moves=%v want %v", got, want)
	}
}

func TestManMovesForwardOnly(t *testing.T) {
	var b Board
	b.Set(Sq(4, 3), Piece{Side: White})
	b.Set(Sq(3, 2), Piece{Side: Black})
	b.Set(Sq(2, 1), Piece{Side: Black})
	ms := LegalMoves(&b, White)
	want := map[Square][]Square{Sq(4, 3): {Sq(3, 4)}}
	if !reflect.DeepEqual(ms.Moves, want) {
		t.Fatalf("moves=%v want %v", ms.Moves, want)
	}

	var lone Board
	lone.Set(Sq(3, 2), Piece{Side: Black})
	bm := LegalMoves(&lone, Black)
	want = map[Square][]Square{Sq(3, 2): {Sq(4, 1), Sq(4, 3)}}
	if !reflect.DeepEqual(bm.Moves, want) {
		t.Fatalf("black men move down the board, got %v", bm.Moves)
	}
}

func TestNoPiecesNoMoves(t *testing.T) {
	var b Board
	b.Set(Sq(5, 0), Piece{Side: White})
	if !LegalMoves(&b, Black).Empty() {
		t.Fatalf("side without pieces must have no moves")
	}
}
