package zobrist

import (
	"encoding/binary"

	"lukechampine.com/frand"

	"github.com/domino14/yomi/move"
)

const bignum = 1<<63 - 2

// MaxHandCount bounds how many pieces of one type a hand can hold
// (all eighteen pawns).
const MaxHandCount = 18

// DefaultSeed seeds the shared key tables. A fixed seed keeps hashes, and
// therefore transposition-table behaviour, identical from run to run.
const DefaultSeed uint64 = 0x79_6f_6d_69_2d_7a_6f_62

// generate a zobrist hash for a shogi position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	gotesTurn uint64

	posTable  [move.NumSquares][2][move.NumPieceTypes]uint64
	handTable [2][move.NumPieceTypes][MaxHandCount + 1]uint64
}

// Default is the table set used by board positions.
var Default = New(DefaultSeed)

func New(seed uint64) *Zobrist {
	z := &Zobrist{}
	z.Initialize(seed)
	return z
}

func (z *Zobrist) Initialize(seed uint64) {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	rng := frand.NewCustom(s[:], 1024, 12)

	for sq := 0; sq < move.NumSquares; sq++ {
		for p := 0; p < 2; p++ {
			for pc := move.Pawn; pc < move.NumPieceTypes; pc++ {
				z.posTable[sq][p][pc] = rng.Uint64n(bignum) + 1
			}
		}
	}
	for p := 0; p < 2; p++ {
		for _, pc := range move.HandPieces {
			// an empty hand contributes nothing.
			for ct := 1; ct <= MaxHandCount; ct++ {
				z.handTable[p][pc][ct] = rng.Uint64n(bignum) + 1
			}
		}
	}
	z.gotesTurn = rng.Uint64n(bignum) + 1
}

func (z *Zobrist) PieceSquare(sq move.Square, player move.Player, pc move.Piece) uint64 {
	return z.posTable[sq][player][pc]
}

func (z *Zobrist) Hand(player move.Player, pc move.Piece, count int) uint64 {
	return z.handTable[player][pc][count]
}

func (z *Zobrist) Turn() uint64 {
	return z.gotesTurn
}

// Hash computes a key from scratch.
func (z *Zobrist) Hash(pieces *[move.NumSquares]move.Piece, owners *[move.NumSquares]move.Player,
	hands *[2][move.NumPieceTypes]int, toMove move.Player) uint64 {

	key := uint64(0)
	for sq, pc := range pieces {
		if pc == move.NoPiece {
			continue
		}
		key ^= z.posTable[sq][owners[sq]][pc]
	}
	for p := 0; p < 2; p++ {
		for _, pc := range move.HandPieces {
			key ^= z.handTable[p][pc][hands[p][pc]]
		}
	}
	if toMove == move.Gote {
		key ^= z.gotesTurn
	}
	return key
}

// AddMove updates key for m. handCount is how many pieces of the affected
// hand type the mover held before the move: the dropped type for a drop,
// the demoted captured type for a capture, ignored otherwise.
func (z *Zobrist) AddMove(key uint64, m move.Move, handCount int) uint64 {
	p := m.Player()
	if m.IsNull() {
		return key ^ z.gotesTurn
	}
	if m.IsDrop() {
		key ^= z.handTable[p][m.Piece()][handCount]
		key ^= z.handTable[p][m.Piece()][handCount-1]
		key ^= z.posTable[m.To()][p][m.Piece()]
		return key ^ z.gotesTurn
	}
	key ^= z.posTable[m.From()][p][m.Piece()]
	if m.IsCapture() {
		key ^= z.posTable[m.To()][p.Opponent()][m.Captured()]
		c := m.Captured().Demoted()
		key ^= z.handTable[p][c][handCount]
		key ^= z.handTable[p][c][handCount+1]
	}
	key ^= z.posTable[m.To()][p][m.Landed()]
	return key ^ z.gotesTurn
}
