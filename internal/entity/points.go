package domain

import (
	"errors"
	"strings"
)

// Points is a non-negative loyalty balance.
type Points int64

func (p Points) Credit(amount int64) Points {
	if amount <= 0 {
		return p
	}
	return p + Points(amount)
}

// Debit floors the balance at zero.
func (p Points) Debit(amount int64) Points {
	if amount <= 0 {
		return p
	}
	if int64(p) <= amount {
		return 0
	}
	return p - Points(amount)
}

const (
	DailyVisitPoints int64 = 10
	AddToCartPoints  int64 = 5
)

type Game string

const (
	GameMemory Game = "memory"
	GameTrivia Game = "trivia"
	GameWheel  Game = "wheel"
)

var ErrUnknownGame = errors.New("unknown game")

var gameRewards = map[Game]int64{
	GameMemory: 15,
	GameTrivia: 20,
	GameWheel:  25,
}

func ParseGame(s string) (Game, error) {
	g := Game(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := gameRewards[g]; !ok {
		return "", ErrUnknownGame
	}
	return g, nil
}

// Reward is the fixed number of points a game pays out.
func (g Game) Reward() int64 {
	return gameRewards[g]
}
