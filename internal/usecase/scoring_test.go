package usecase

import (
	"testing"

	"github.com/rmarban/euroleague-fantasy/internal/domain/playerstats"
)

func TestScoringWeights_Score(t *testing.T) {
	weights := DefaultScoringWeights()

	tests := []struct {
		name string
		line playerstats.StatLine
		want int
	}{
		{
			name: "empty line scores zero",
			line: playerstats.StatLine{},
			want: 0,
		},
		{
			name: "fractional total rounds up",
			// 17 pts, 1 missed two, 2 missed threes, 1 missed ft,
			// 4 ast, 6 reb, 1 stl, 3 to, 0 blk:
			// 170 - 3 - 10 - 5 + 60 + 72 + 20 - 60 = 244 tenths -> 25.
			line: playerstats.StatLine{
				Points:          17,
				TwoPointsMade:   4,
				TwoPointsAtt:    5,
				ThreePointsMade: 2,
				ThreePointsAtt:  4,
				FreeThrowsMade:  3,
				FreeThrowsAtt:   4,
				Assists:         4,
				ReboundsOff:     2,
				ReboundsDef:     4,
				Steals:          1,
				Turnovers:       3,
			},
			want: 25,
		},
		{
			name: "published formula example",
			// 22 pts, 2 missed twos, 1 missed three, 0 missed ft,
			// 5 ast, 3 reb, 1 stl, 2 to, 1 blk:
			// 220 - 6 - 5 + 75 + 36 + 20 - 40 + 20 = 320 tenths -> 32.
			line: playerstats.StatLine{
				Points:          22,
				TwoPointsMade:   6,
				TwoPointsAtt:    8,
				ThreePointsMade: 2,
				ThreePointsAtt:  3,
				FreeThrowsMade:  4,
				FreeThrowsAtt:   4,
				Assists:         5,
				ReboundsDef:     3,
				Steals:          1,
				Turnovers:       2,
				BlocksFavour:    1,
			},
			want: 32,
		},
		{
			name: "negative total rounds toward zero",
			// 0 pts, 3 missed twos, 2 to: -9 - 40 = -49 tenths -> -4.
			line: playerstats.StatLine{
				TwoPointsAtt: 3,
				Turnovers:    2,
			},
			want: -4,
		},
		{
			name: "exact whole total stays put",
			// 10 pts, 2 ast, 1 stl: 100 + 30 + 20 = 150 tenths -> 15.
			line: playerstats.StatLine{
				Points:  10,
				Assists: 2,
				Steals:  1,
			},
			want: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weights.Score(tt.line); got != tt.want {
				t.Fatalf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCeilTenths(t *testing.T) {
	cases := map[int]int{
		0:    0,
		287:  29,
		290:  29,
		291:  30,
		-1:   0,
		-10:  -1,
		-11:  -1,
		-20:  -2,
		5:    1,
		1000: 100,
	}
	for tenths, want := range cases {
		if got := ceilTenths(tenths); got != want {
			t.Fatalf("ceilTenths(%d) = %d, want %d", tenths, got, want)
		}
	}
}

func TestScoringWeights_Determinism(t *testing.T) {
	weights := DefaultScoringWeights()
	line := playerstats.StatLine{
		Points:          28,
		TwoPointsMade:   9,
		TwoPointsAtt:    12,
		ThreePointsMade: 2,
		ThreePointsAtt:  5,
		FreeThrowsMade:  4,
		FreeThrowsAtt:   5,
		Assists:         7,
		ReboundsOff:     1,
		ReboundsDef:     5,
		Steals:          2,
		Turnovers:       4,
		BlocksFavour:    1,
	}

	first := weights.Score(line)
	for i := 0; i < 100; i++ {
		if got := weights.Score(line); got != first {
			t.Fatalf("score drifted on iteration %d: %d != %d", i, got, first)
		}
	}
}
