package cardtitle

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "keeps first line only",
			raw:  "Alex Bregman - 2025 MLB Topps NOW® - Card OS-14 - PR: 2,176\nShips in 7 days\n$9.99",
			want: "Alex Bregman - 2025 MLB Topps NOW® - Card OS-14 - PR: 2,176",
		},
		{
			name: "drops marketing suffix between separators",
			raw:  "Aaron Judge - 2025 MLB Topps NOW® - LOOK FOR AUTO-RELICS - Card 301",
			want: "Aaron Judge - 2025 MLB Topps NOW® - Card 301",
		},
		{
			name: "drops trailing marketing suffix",
			raw:  "Paul Skenes - 2025 MLB Topps NOW® Card 12 - look for autos",
			want: "Paul Skenes - 2025 MLB Topps NOW® Card 12",
		},
		{
			name: "collapses doubled separators and whitespace",
			raw:  "  Cal  Raleigh -  - 2025 MLB   Topps NOW®  - Card 44 -  ",
			want: "Cal Raleigh - 2025 MLB Topps NOW® - Card 44",
		},
		{
			name: "empty stays empty",
			raw:  " \n ",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tc.raw)
			if got != tc.want {
				t.Fatalf("normalize:\nwant: %q\ngot:  %q", tc.want, got)
			}
			if again := Normalize(got); again != got {
				t.Fatalf("normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeIdempotentOnAwkwardInputs(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"a - - - b",
		"- LOOK FOR RELICS - LOOK FOR AUTOS -",
		"x -- LOOK FOR RELICS-- y",
		"Card OS-14 -",
		"\t\tTeam Set\r\nrest",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("normalize(%q): %q then %q", in, once, twice)
		}
	}
}

func TestJoinLines(t *testing.T) {
	t.Parallel()

	got := JoinLines("Alex Bregman - 2025 MLB Topps NOW®\n - Card OS-14 - LOOK FOR RELICS")
	want := "Alex Bregman - 2025 MLB Topps NOW® - Card OS-14 - LOOK FOR RELICS"
	if got != want {
		t.Fatalf("join lines:\nwant: %q\ngot:  %q", want, got)
	}
}
