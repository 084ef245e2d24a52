package ordering

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func sq(s string) move.Square {
	q, err := move.ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return q
}

func quiet(from, to string, pc move.Piece) move.Move {
	return move.NewBoardMove(sq(from), sq(to), pc, move.Sente, move.NoPiece, false)
}

// exchangePosition has a gote pawn on 5f attacked by a sente silver on 5g.
func exchangePosition(defended, xray bool) *board.Position {
	pos := board.NewEmpty()
	pos.Put(sq("9i"), move.King, move.Sente)
	pos.Put(sq("1a"), move.King, move.Gote)
	pos.Put(sq("5g"), move.Silver, move.Sente)
	pos.Put(sq("5f"), move.Pawn, move.Gote)
	if defended {
		pos.Put(sq("5e"), move.Gold, move.Gote)
	}
	if xray {
		pos.Put(sq("5i"), move.Rook, move.Sente)
	}
	return pos
}

var silverTakesPawn = move.NewBoardMove(sq("5g"), sq("5f"), move.Silver, move.Sente, move.Pawn, false)

func TestSEE(t *testing.T) {
	for _, tc := range []struct {
		name     string
		defended bool
		xray     bool
		want     int32
	}{
		{"undefended", false, false, 90},
		{"defended by gold", true, false, 90 - 495},
		// the rook behind the silver makes the recapture lose the gold
		{"xray rook", true, true, 90},
	} {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			pos := exchangePosition(tc.defended, tc.xray)
			before := pos.SFEN()
			key := pos.Hash()
			o := NewOrderer(config.DefaultMoveOrderingConfig(), nil)
			is.Equal(o.CalculateSEE(pos, silverTakesPawn), tc.want)
			is.Equal(pos.SFEN(), before)
			is.Equal(pos.Hash(), key)
		})
	}
}

func TestSEECache(t *testing.T) {
	is := is.New(t)
	pos := exchangePosition(true, false)
	o := NewOrderer(config.DefaultMoveOrderingConfig(), nil)
	a := o.CalculateSEE(pos, silverTakesPawn)
	b := o.CalculateSEE(pos, silverTakesPawn)
	is.Equal(a, b)
	st := o.Stats()
	is.Equal(st.SEECalculations, uint64(1))
	is.Equal(st.SEECacheHits, uint64(1))
	is.Equal(st.SEECacheMisses, uint64(1))

	cfg := config.DefaultMoveOrderingConfig()
	cfg.Cache.Enabled = false
	o = NewOrderer(cfg, nil)
	o.CalculateSEE(pos, silverTakesPawn)
	o.CalculateSEE(pos, silverTakesPawn)
	is.Equal(o.Stats().SEECalculations, uint64(2))
}

func TestHistoryAccumulatesAndClamps(t *testing.T) {
	is := is.New(t)
	m := quiet("7g", "7f", move.Pawn)

	h := NewHistoryTable(16384, 0.5, 0)
	h.Update(m, 2)
	h.Update(m, 3)
	h.Update(m, 4)
	is.Equal(h.Score(m), int32(4+9+16))

	h.Age()
	is.Equal(h.Score(m), int32(14))

	capped := NewHistoryTable(20, 0.5, 0)
	capped.Update(m, 4)
	capped.Update(m, 4)
	is.Equal(capped.Score(m), int32(20))

	// drops are keyed apart from board moves to the same square
	drop := move.NewDrop(sq("7f"), move.Pawn, move.Sente)
	is.Equal(h.Score(drop), int32(0))
}

func TestHistoryAgingInterval(t *testing.T) {
	is := is.New(t)
	m := quiet("2g", "2f", move.Pawn)
	h := NewHistoryTable(16384, 0.5, 3)
	h.Update(m, 2)
	h.Update(m, 3)
	is.Equal(h.Score(m), int32(13))
	h.Update(m, 4)
	is.Equal(h.Score(m), int32(14))
}

func TestKillerTableBound(t *testing.T) {
	is := is.New(t)
	kt := NewKillerTable(2)
	moves := []move.Move{
		quiet("1g", "1f", move.Pawn),
		quiet("2g", "2f", move.Pawn),
		quiet("3g", "3f", move.Pawn),
		quiet("4g", "4f", move.Pawn),
		quiet("5g", "5f", move.Pawn),
	}
	for _, m := range moves {
		kt.Update(4, m)
		is.True(kt.Len(4) <= 2)
	}
	is.Equal(kt.Killers(4), []move.Move{moves[4], moves[3]})
	is.Equal(kt.Len(3), 0)

	// re-inserting an existing killer moves it to the front
	kt.Update(4, moves[3])
	is.Equal(kt.Killers(4), []move.Move{moves[3], moves[4]})
	kt.Update(4, moves[3].WithCheck(true))
	is.Equal(kt.Len(4), 2)
	is.Equal(kt.Index(4, moves[4]), 1)

	kt.Update(-1, moves[0])
	kt.Update(MaxPly, moves[0])
	kt.Clear()
	is.Equal(kt.Len(4), 0)
}

func TestCounterMoves(t *testing.T) {
	is := is.New(t)
	c := NewCounterMoveTable()
	prev := move.NewBoardMove(sq("3c"), sq("3d"), move.Pawn, move.Gote, move.NoPiece, false)
	reply := quiet("2g", "2f", move.Pawn)
	is.Equal(c.Counter(prev), move.Null)
	c.Update(prev, reply)
	is.Equal(c.Counter(prev), reply)
	c.Clear()
	is.Equal(c.Counter(prev), move.Null)
}

func TestOrderMovesBands(t *testing.T) {
	is := is.New(t)
	pos := exchangePosition(false, false)
	pos.Put(sq("3d"), move.Pawn, move.Sente)
	pos.Put(sq("7h"), move.Gold, move.Sente)
	pos.Put(sq("8h"), move.Gold, move.Sente)

	plain := quiet("8h", "8g", move.Gold)
	historied := quiet("7h", "7g", move.Gold)
	promo := move.NewBoardMove(sq("3d"), sq("3c"), move.Pawn, move.Sente, move.NoPiece, true)

	o := NewOrderer(config.DefaultMoveOrderingConfig(), evaluator.New())
	o.UpdateHistory(historied, 3)

	moves := []move.Move{plain, historied, promo, silverTakesPawn}
	o.OrderMoves(pos, moves, Hints{Ply: 1})
	is.Equal(moves, []move.Move{silverTakesPawn, promo, historied, plain})

	// PV beats everything, the hash move comes next
	moves = []move.Move{plain, historied, promo, silverTakesPawn}
	o.OrderMoves(pos, moves, Hints{Ply: 1, PVMove: plain, HashMove: promo})
	is.Equal(moves, []move.Move{plain, promo, silverTakesPawn, historied})
}

func TestOrderMovesStableWithKillers(t *testing.T) {
	is := is.New(t)
	pos := board.StartingPosition()
	moves := movegen.NewGenerator().GenerateLegalMoves(pos, nil)
	is.Equal(len(moves), 30)
	orig := append([]move.Move(nil), moves...)

	cfg := config.DefaultMoveOrderingConfig()
	o := NewOrderer(cfg, nil)
	o.UpdateKiller(orig[10], 2)
	o.UpdateKiller(orig[11], 2)

	o.OrderMoves(pos, moves, Hints{Ply: 2, PVMove: orig[5]})
	is.Equal(moves[0], orig[5])
	is.Equal(moves[1], orig[11])
	is.Equal(moves[2], orig[10])

	// everything else keeps generation order
	rest := make([]move.Move, 0, len(orig))
	for i, m := range orig {
		if i != 5 && i != 10 && i != 11 {
			rest = append(rest, m)
		}
	}
	is.Equal(moves[3:], rest)

	// killers are per ply
	moves = append(moves[:0], orig...)
	o.OrderMoves(pos, moves, Hints{Ply: 3})
	is.Equal(moves, orig)
}

func TestOrderMovesCounterMove(t *testing.T) {
	pos := board.StartingPosition()
	moves := movegen.NewGenerator().GenerateLegalMoves(pos, nil)
	last := moves[len(moves)-1]
	prev := move.NewBoardMove(sq("3c"), sq("3d"), move.Pawn, move.Gote, move.NoPiece, false)

	o := NewOrderer(config.DefaultMoveOrderingConfig(), nil)
	o.UpdateCounterMove(prev, last)
	o.OrderMoves(pos, moves, Hints{PrevMove: prev})
	assert.Equal(t, last, moves[0])
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	is := is.New(t)
	o := NewOrderer(config.DefaultMoveOrderingConfig(), nil)
	bad := config.DefaultMoveOrderingConfig()
	bad.KillerBonus = bad.PVBonus + 1
	is.True(o.UpdateConfig(bad) != nil)
	is.Equal(o.Config(), config.DefaultMoveOrderingConfig())

	good := config.DefaultMoveOrderingConfig()
	good.Killer.MaxPerDepth = 3
	is.NoErr(o.UpdateConfig(good))
	for i, f := range []string{"1", "2", "3", "4"} {
		o.UpdateKiller(quiet(f+"g", f+"f", move.Pawn), 0)
		is.Equal(o.Killers().Len(0), min(i+1, 3))
	}
}

func TestValidateOrderingDebug(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultMoveOrderingConfig()
	cfg.Debug.ValidateOrdering = true
	cfg.Debug.LogOrdering = true
	o := NewOrderer(cfg, evaluator.New())
	pos := board.StartingPosition()
	moves := movegen.NewGenerator().GenerateLegalMoves(pos, nil)
	o.OrderMoves(pos, moves, Hints{})
	is.Equal(o.Stats().OrderingErrors, uint64(0))
	is.Equal(o.Stats().Orderings, uint64(1))
}
