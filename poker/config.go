package poker

import "fmt"

type Config struct {
	// Table
	MaxSeats   int
	MinPlayers int

	// Blinds
	SmallBlind int64
	BigBlind   int64

	// Buy-in bounds, also applied to rebuys
	MinBuyIn int64
	MaxBuyIn int64

	AllowRebuys bool

	// FirstDealer pins the opening button seat. NoSeat picks one with the RNG.
	FirstDealer int

	// RNG seed (0 => time-based)
	Seed int64
}

func (c Config) validate() error {
	if c.MaxSeats <= 0 || c.MaxSeats > 10 {
		return fmt.Errorf("MaxSeats must be in 1..10")
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("MinPlayers must be >= 2")
	}
	if c.MinPlayers > c.MaxSeats {
		return fmt.Errorf("MinPlayers must be <= MaxSeats")
	}
	if c.SmallBlind <= 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.MinBuyIn <= 0 || c.MaxBuyIn < c.MinBuyIn {
		return fmt.Errorf("invalid buy-in bounds: min=%d max=%d", c.MinBuyIn, c.MaxBuyIn)
	}
	if c.FirstDealer != NoSeat && (c.FirstDealer < 0 || c.FirstDealer >= c.MaxSeats) {
		return fmt.Errorf("invalid FirstDealer seat %d", c.FirstDealer)
	}
	return nil
}

// DefaultConfig is a playable small-stakes table.
func DefaultConfig() Config {
	return Config{
		MaxSeats:    6,
		MinPlayers:  2,
		SmallBlind:  10,
		BigBlind:    20,
		MinBuyIn:    400,
		MaxBuyIn:    4000,
		AllowRebuys: true,
		FirstDealer: NoSeat,
	}
}
