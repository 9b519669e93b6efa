package engine

import "slices"

type Category int

const (
	Ones Category = iota
	Twos
	Threes
	Fours
	Fives
	Sixes
	ThreeOfKind
	FourOfKind
	FullHouse
	SmallStraight
	LargeStraight
	Yahtzee
	Chance
)

const (
	NumCategories = 13
	NumDice       = 5

	fullHouseScore     = 50
	smallStraightScore = 30
	largeStraightScore = 40
	yahtzeeScore       = 50

	upperBonusThreshold = 63
	upperBonus          = 35
)

var categoryNames = [NumCategories]string{
	"Ones",
	"Twos",
	"Threes",
	"Fours",
	"Fives",
	"Sixes",
	"Three of a Kind",
	"Four of a Kind",
	"Full House",
	"Small Straight",
	"Large Straight",
	"Yahtzee",
	"Chance",
}

func (c Category) Valid() bool {
	return c >= 0 && c < NumCategories
}

func (c Category) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return categoryNames[c]
}

// Score returns the points the dice are worth in category c. Values must be
// in 1..6; the caller's array is not modified.
func Score(dice [NumDice]int, c Category) int {
	d := dice
	slices.Sort(d[:])

	switch c {
	case Ones, Twos, Threes, Fours, Fives, Sixes:
		n := int(c) + 1
		total := 0
		for _, v := range d {
			if v == n {
				total += n
			}
		}
		return total
	case ThreeOfKind:
		if hasThreeOfKind(d) {
			return sum(d)
		}
	case FourOfKind:
		if hasFourOfKind(d) {
			return sum(d)
		}
	case FullHouse:
		if isFullHouse(d) {
			return fullHouseScore
		}
	case SmallStraight:
		if longestRun(d) >= 4 {
			return smallStraightScore
		}
	case LargeStraight:
		if longestRun(d) == NumDice {
			return largeStraightScore
		}
	case Yahtzee:
		if d[0] == d[4] {
			return yahtzeeScore
		}
	case Chance:
		return sum(d)
	}
	return 0
}

// ScoreAll scores the dice in every category, in category order.
func ScoreAll(dice [NumDice]int) [NumCategories]int {
	var out [NumCategories]int
	for c := Category(0); c < NumCategories; c++ {
		out[c] = Score(dice, c)
	}
	return out
}

// Any run of three equal values in sorted dice covers the middle die.
func hasThreeOfKind(d [NumDice]int) bool {
	const first, middle, last = 0, 2, 4
	left := d[middle] == d[middle-1] || d[middle] == d[last]
	right := d[middle] == d[middle+1] || d[middle] == d[first]
	return left && right
}

func hasFourOfKind(d [NumDice]int) bool {
	const first, middle, last = 0, 2, 4
	if d[middle-1] != d[middle+1] {
		return false
	}
	return d[middle] == d[first] || d[middle] == d[last]
}

// Five of a kind also satisfies this split; both categories stay selectable.
func isFullHouse(d [NumDice]int) bool {
	const first, middle, last = 0, 2, 4
	if d[first] != d[middle-1] || d[last] != d[middle+1] {
		return false
	}
	return d[middle] == d[first] || d[middle] == d[last]
}

// longestRun is the length of the longest run of consecutive distinct values.
func longestRun(sorted [NumDice]int) int {
	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		switch sorted[i] - sorted[i-1] {
		case 0:
		case 1:
			run++
			best = max(best, run)
		default:
			run = 1
		}
	}
	return best
}

func sum(d [NumDice]int) int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}

// UpperBonus is 35 once the selected Ones..Sixes cells reach 63.
func UpperBonus(cells [NumCategories]ScoreCell) int {
	total := 0
	for c := Ones; c <= Sixes; c++ {
		if cells[c].State == CellSelected {
			total += cells[c].Score
		}
	}
	if total >= upperBonusThreshold {
		return upperBonus
	}
	return 0
}

// Total sums the selected cells plus the upper bonus.
func Total(cells [NumCategories]ScoreCell) int {
	total := 0
	for _, cell := range cells {
		if cell.State == CellSelected {
			total += cell.Score
		}
	}
	return total + UpperBonus(cells)
}

// Complete reports whether every category has been selected.
func Complete(cells [NumCategories]ScoreCell) bool {
	for _, cell := range cells {
		if cell.State != CellSelected {
			return false
		}
	}
	return true
}
