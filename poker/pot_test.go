package poker

import (
	"math/rand"
	"testing"
)

func seatWithBet(seat int, total int64, status PlayerStatus) *Player {
	return &Player{
		ID:       "p" + string(rune('0'+seat)),
		Seat:     seat,
		totalBet: total,
		status:   status,
		boughtIn: true,
	}
}

func TestBuildPotsSingleLevel(t *testing.T) {
	players := []*Player{
		seatWithBet(0, 100, StatusPlaying),
		seatWithBet(1, 100, StatusPlaying),
		seatWithBet(2, 100, StatusFolded),
	}
	pots := buildPots(players)
	if len(pots) != 1 {
		t.Fatalf("expected 1 pot, got %d", len(pots))
	}
	if pots[0].Amount != 300 {
		t.Fatalf("pot amount %d, want 300", pots[0].Amount)
	}
	if len(pots[0].Eligible) != 2 {
		t.Fatalf("eligible %v, want seats 0 and 1", pots[0].Eligible)
	}
}

func TestBuildPotsNestedAllIns(t *testing.T) {
	// all-ins at 50 and 200 under a 500 call
	players := []*Player{
		seatWithBet(0, 50, StatusAllIn),
		seatWithBet(1, 200, StatusAllIn),
		seatWithBet(2, 500, StatusPlaying),
		seatWithBet(3, 500, StatusPlaying),
	}
	pots := buildPots(players)
	if len(pots) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(pots))
	}

	if pots[0].Amount != 200 { // 50 x 4
		t.Errorf("main pot %d, want 200", pots[0].Amount)
	}
	if len(pots[0].Eligible) != 4 {
		t.Errorf("main pot eligible %v, want all four", pots[0].Eligible)
	}

	if pots[1].Amount != 450 { // 150 x 3
		t.Errorf("first side pot %d, want 450", pots[1].Amount)
	}
	if len(pots[1].Eligible) != 3 {
		t.Errorf("first side pot eligible %v, want three", pots[1].Eligible)
	}

	if pots[2].Amount != 600 { // 300 x 2
		t.Errorf("second side pot %d, want 600", pots[2].Amount)
	}
	if len(pots[2].Eligible) != 2 {
		t.Errorf("second side pot eligible %v, want two", pots[2].Eligible)
	}

	if potTotal(pots) != 1250 {
		t.Fatalf("pot total %d, want 1250", potTotal(pots))
	}
}

func TestBuildPotsFoldedMoneyStaysIn(t *testing.T) {
	players := []*Player{
		seatWithBet(0, 300, StatusFolded),
		seatWithBet(1, 300, StatusPlaying),
		seatWithBet(2, 300, StatusPlaying),
	}
	pots := buildPots(players)
	if potTotal(pots) != 900 {
		t.Fatalf("pot total %d, want 900 (folded chips stay)", potTotal(pots))
	}
	for _, pot := range pots {
		for _, seat := range pot.Eligible {
			if seat == 0 {
				t.Fatal("folded seat must not be eligible")
			}
		}
	}
}

// Layer sums must equal total contributions and eligibility sets must
// be nested, for arbitrary all-in structures.
func TestBuildPotsPartitionProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("property loop")
	}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(6)
		players := make([]*Player, 0, n)
		var total int64
		for seat := 0; seat < n; seat++ {
			bet := int64(rng.Intn(400))
			status := StatusPlaying
			switch rng.Intn(3) {
			case 0:
				status = StatusAllIn
			case 1:
				status = StatusFolded
			}
			players = append(players, seatWithBet(seat, bet, status))
			total += bet
		}

		pots := buildPots(players)
		if potTotal(pots) != total {
			t.Fatalf("case %d: layers sum %d, contributions %d", i, potTotal(pots), total)
		}
		// each later layer's eligibility nests inside the previous one
		for j := 1; j < len(pots); j++ {
			prev := make(map[int]bool, len(pots[j-1].Eligible))
			for _, seat := range pots[j-1].Eligible {
				prev[seat] = true
			}
			for _, seat := range pots[j].Eligible {
				if !prev[seat] {
					t.Fatalf("case %d: seat %d eligible in layer %d but not %d", i, seat, j, j-1)
				}
			}
		}
	}
}

func TestReturnUncalledBets(t *testing.T) {
	// seat 2's raise to 500 went uncalled past 200
	players := []*Player{
		seatWithBet(0, 50, StatusFolded),
		seatWithBet(1, 200, StatusAllIn),
		seatWithBet(2, 500, StatusPlaying),
	}
	players[2].stack = 100

	seat, refund := returnUncalledBets(players)
	if seat != 2 || refund != 300 {
		t.Fatalf("refund seat %d amount %d, want seat 2 amount 300", seat, refund)
	}
	if players[2].stack != 400 {
		t.Fatalf("stack %d, want 400", players[2].stack)
	}
	if players[2].totalBet != 200 {
		t.Fatalf("totalBet %d, want 200", players[2].totalBet)
	}
}

func TestReturnUncalledBetsMatched(t *testing.T) {
	players := []*Player{
		seatWithBet(0, 200, StatusPlaying),
		seatWithBet(1, 200, StatusPlaying),
	}
	if seat, refund := returnUncalledBets(players); seat != NoSeat || refund != 0 {
		t.Fatalf("matched bets refunded: seat %d amount %d", seat, refund)
	}
}
