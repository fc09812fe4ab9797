package search

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

// Centipawn values indexed by dragontoothmg piece.
var pieceValue = [7]int{0, 100, 320, 330, 500, 900, 0}

// Central squares reward minor pieces and pawns a little; indexes follow a1=0 .. h8=63.
const (
	center    uint64 = 0x0000001818000000
	outerRing uint64 = 0x00003C24243C0000
)

// evaluate scores b from the side to move's point of view.
func evaluate(b *dragontoothmg.Board) int {
	score := side(&b.White, true) - side(&b.Black, false)
	if !b.Wtomove {
		score = -score
	}
	return score
}

func side(bb *dragontoothmg.Bitboards, white bool) int {
	score := bits.OnesCount64(uint64(bb.Pawns))*pieceValue[dragontoothmg.Pawn] +
		bits.OnesCount64(uint64(bb.Knights))*pieceValue[dragontoothmg.Knight] +
		bits.OnesCount64(uint64(bb.Bishops))*pieceValue[dragontoothmg.Bishop] +
		bits.OnesCount64(uint64(bb.Rooks))*pieceValue[dragontoothmg.Rook] +
		bits.OnesCount64(uint64(bb.Queens))*pieceValue[dragontoothmg.Queen]

	minors := uint64(bb.Knights | bb.Bishops)
	score += 15*bits.OnesCount64(minors&center) + 8*bits.OnesCount64(minors&outerRing)
	score += 10 * bits.OnesCount64(uint64(bb.Pawns)&center)
	if bits.OnesCount64(uint64(bb.Bishops)) >= 2 {
		score += 30
	}
	score += pawnAdvance(uint64(bb.Pawns), white)
	return score
}

// pawnAdvance rewards pawns by how far they have travelled.
func pawnAdvance(pawns uint64, white bool) int {
	score := 0
	for pawns != 0 {
		sq := bits.TrailingZeros64(pawns)
		pawns &= pawns - 1
		rank := sq / 8
		if !white {
			rank = 7 - rank
		}
		if rank >= 4 {
			score += (rank - 3) * 6
		}
	}
	return score
}
