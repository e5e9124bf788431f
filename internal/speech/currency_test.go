package speech

import "testing"

func TestSpeakCurrency(t *testing.T) {
	cases := []struct {
		name  string
		cents int64
		want  string
	}{
		{name: "zero", cents: 0, want: "zero reais"},
		{name: "one real", cents: 100, want: "um real"},
		{name: "one real one centavo", cents: 101, want: "um real e um centavo"},
		{name: "round tens no centavos clause", cents: 1000, want: "dez reais"},
		{name: "centavos only", cents: 50, want: "cinquenta centavos"},
		{name: "single centavo", cents: 1, want: "um centavo"},
		{name: "large amount", cents: 123456, want: "mil duzentos e trinta e quatro reais e cinquenta e seis centavos"},
		{name: "negative spoken as absolute", cents: -250, want: "dois reais e cinquenta centavos"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := SpeakCurrency(tc.cents)
			if got != tc.want {
				t.Fatalf("SpeakCurrency(%d) = %q, want %q", tc.cents, got, tc.want)
			}
		})
	}
}

func TestNumberWordsPT(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "zero"},
		{1, "um"},
		{14, "catorze"},
		{21, "vinte e um"},
		{100, "cem"},
		{101, "cento e um"},
		{234, "duzentos e trinta e quatro"},
		{1000, "mil"},
		{1100, "mil e cem"},
		{1234, "mil duzentos e trinta e quatro"},
		{2000, "dois mil"},
		{1000000, "um milhão"},
		{2000020, "dois milhões e vinte"},
		{1234567, "um milhão duzentos e trinta e quatro mil quinhentos e sessenta e sete"},
	}

	for _, tc := range cases {
		if got := NumberWordsPT(tc.n); got != tc.want {
			t.Fatalf("NumberWordsPT(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
