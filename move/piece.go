package move

import "strings"

// Player is a side. Sente moves first and sits on the bottom of the board.
type Player uint8

const (
	Sente Player = iota
	Gote
)

func (p Player) Opponent() Player {
	return p ^ 1
}

func (p Player) String() string {
	if p == Sente {
		return "sente"
	}
	return "gote"
}

// Piece is a piece type, without an owner.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	Horse
	Dragon

	NumPieceTypes
)

// HandPieces are the piece types that can be held in hand, in the order
// they are written in an SFEN hand.
var HandPieces = [...]Piece{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

var pieceLetters = [NumPieceTypes]string{
	"", "P", "L", "N", "S", "G", "B", "R", "K",
	"+P", "+L", "+N", "+S", "+B", "+R",
}

// CanPromote returns true if the piece type has a promoted form.
func (p Piece) CanPromote() bool {
	return p >= Pawn && p <= Rook && p != Gold
}

func (p Piece) IsPromoted() bool {
	return p >= ProPawn
}

// Promoted returns the promoted form. Pieces that do not promote are
// returned unchanged.
func (p Piece) Promoted() Piece {
	switch p {
	case Pawn:
		return ProPawn
	case Lance:
		return ProLance
	case Knight:
		return ProKnight
	case Silver:
		return ProSilver
	case Bishop:
		return Horse
	case Rook:
		return Dragon
	}
	return p
}

// Demoted returns the unpromoted form. A captured piece enters the hand
// in this form.
func (p Piece) Demoted() Piece {
	switch p {
	case ProPawn:
		return Pawn
	case ProLance:
		return Lance
	case ProKnight:
		return Knight
	case ProSilver:
		return Silver
	case Horse:
		return Bishop
	case Dragon:
		return Rook
	}
	return p
}

// Letter returns the SFEN letter for the piece, upper case for sente.
func (p Piece) Letter(player Player) string {
	if p >= NumPieceTypes {
		return "?"
	}
	if player == Gote {
		return strings.ToLower(pieceLetters[p])
	}
	return pieceLetters[p]
}

func (p Piece) String() string {
	return p.Letter(Sente)
}

// PieceFromLetter parses an unpromoted SFEN piece letter. The boolean
// reports the owner: true for sente (upper case).
func PieceFromLetter(c byte) (Piece, Player, bool) {
	player := Sente
	if c >= 'a' && c <= 'z' {
		player = Gote
		c -= 'a' - 'A'
	}
	for p := Pawn; p <= King; p++ {
		if pieceLetters[p][0] == c {
			return p, player, true
		}
	}
	return NoPiece, player, false
}
