package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		dice [NumDice]int
		want map[Category]int
	}{
		{
			name: "full house",
			dice: [NumDice]int{1, 1, 1, 2, 2},
			want: map[Category]int{FullHouse: 50, ThreeOfKind: 7, FourOfKind: 0, Chance: 7, Ones: 3, Twos: 4, Yahtzee: 0},
		},
		{
			name: "five of a kind",
			dice: [NumDice]int{6, 6, 6, 6, 6},
			want: map[Category]int{Yahtzee: 50, FourOfKind: 30, ThreeOfKind: 30, Chance: 30, Sixes: 30, FullHouse: 50},
		},
		{
			name: "large straight",
			dice: [NumDice]int{1, 2, 3, 4, 5},
			want: map[Category]int{LargeStraight: 40, SmallStraight: 30, Chance: 15, ThreeOfKind: 0, FullHouse: 0},
		},
		{
			name: "small straight with gap die",
			dice: [NumDice]int{1, 2, 3, 4, 6},
			want: map[Category]int{SmallStraight: 30, LargeStraight: 0},
		},
		{
			name: "small straight with duplicate",
			dice: [NumDice]int{3, 4, 4, 5, 6},
			want: map[Category]int{SmallStraight: 30, LargeStraight: 0, Fours: 8},
		},
		{
			name: "three of a kind at the top",
			dice: [NumDice]int{2, 3, 5, 5, 5},
			want: map[Category]int{ThreeOfKind: 20, FourOfKind: 0, FullHouse: 0, Fives: 15},
		},
		{
			name: "four of a kind",
			dice: [NumDice]int{4, 4, 4, 4, 1},
			want: map[Category]int{FourOfKind: 17, ThreeOfKind: 17, FullHouse: 0, Yahtzee: 0},
		},
		{
			name: "two pairs",
			dice: [NumDice]int{2, 2, 3, 3, 6},
			want: map[Category]int{ThreeOfKind: 0, FullHouse: 0, SmallStraight: 0, Chance: 16},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for c, want := range tc.want {
				assert.Equal(t, want, Score(tc.dice, c), c.String())
			}
		})
	}
}

func TestScore_DoesNotMutateInput(t *testing.T) {
	dice := [NumDice]int{5, 1, 4, 2, 3}
	Score(dice, LargeStraight)
	assert.Equal(t, [NumDice]int{5, 1, 4, 2, 3}, dice)
}

func TestScore_PermutationInvariant(t *testing.T) {
	base := [NumDice]int{3, 3, 5, 5, 5}
	perms := [][NumDice]int{
		{5, 3, 5, 3, 5},
		{5, 5, 5, 3, 3},
		{3, 5, 3, 5, 5},
	}
	want := ScoreAll(base)
	for _, p := range perms {
		assert.Equal(t, want, ScoreAll(p), "%v", p)
	}
}

func TestUpperBonusAndTotal(t *testing.T) {
	var cells [NumCategories]ScoreCell
	for c := range cells {
		cells[c] = ScoreCell{State: CellDefault}
	}
	// 3 of each upper face: 3+6+9+12+15+18 = 63
	for c := Ones; c <= Sixes; c++ {
		cells[c] = ScoreCell{Score: 3 * (int(c) + 1), State: CellSelected}
	}
	cells[Chance] = ScoreCell{Score: 20, State: CellSelected}
	cells[Yahtzee] = ScoreCell{Score: 50, State: CellFlashing}

	assert.Equal(t, 35, UpperBonus(cells))
	assert.Equal(t, 63+20+35, Total(cells))
	assert.False(t, Complete(cells))

	cells[Sixes].Score = 12
	assert.Equal(t, 0, UpperBonus(cells))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "Full House", FullHouse.String())
	assert.Equal(t, "Unknown", Category(13).String())
	assert.False(t, Category(-1).Valid())
}
