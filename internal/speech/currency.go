package speech

import "strings"

// SpeakCurrency renders a monetary amount in centavos as fully spoken
// Brazilian Portuguese: "mil duzentos e trinta e quatro reais e cinquenta e
// seis centavos". Exactly zero renders as "zero reais".
func SpeakCurrency(cents int64) string {
	if cents < 0 {
		cents = -cents
	}
	reais := cents / 100
	rest := cents % 100

	if reais == 0 && rest == 0 {
		return "zero reais"
	}

	var parts []string
	if reais > 0 {
		if reais == 1 {
			parts = append(parts, "um real")
		} else {
			parts = append(parts, NumberWordsPT(reais)+" reais")
		}
	}
	if rest > 0 {
		if rest == 1 {
			parts = append(parts, "um centavo")
		} else {
			parts = append(parts, NumberWordsPT(rest)+" centavos")
		}
	}
	return strings.Join(parts, " e ")
}

var (
	ptUnits = []string{"zero", "um", "dois", "três", "quatro", "cinco", "seis", "sete", "oito", "nove",
		"dez", "onze", "doze", "treze", "catorze", "quinze", "dezesseis", "dezessete", "dezoito", "dezenove"}
	ptTens = []string{"", "", "vinte", "trinta", "quarenta", "cinquenta", "sessenta", "setenta", "oitenta", "noventa"}
	ptHundreds = []string{"", "cento", "duzentos", "trezentos", "quatrocentos", "quinhentos",
		"seiscentos", "setecentos", "oitocentos", "novecentos"}
)

// NumberWordsPT spells a non-negative integer in Brazilian Portuguese.
// Supported up to the billions, which covers any spoken account value.
func NumberWordsPT(n int64) string {
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return "zero"
	}

	type group struct {
		value    int64
		singular string
		plural   string
	}
	groups := []group{
		{1_000_000_000, "bilhão", "bilhões"},
		{1_000_000, "milhão", "milhões"},
		{1_000, "mil", "mil"},
		{1, "", ""},
	}

	type segment struct {
		value int64
		words string
	}
	var segments []segment
	for _, g := range groups {
		v := n / g.value
		n %= g.value
		if v == 0 {
			continue
		}
		var words string
		switch {
		case g.value == 1:
			words = underThousandPT(v)
		case g.value == 1_000 && v == 1:
			// "mil", never "um mil".
			words = "mil"
		case v == 1:
			words = "um " + g.singular
		default:
			words = underThousandPT(v) + " " + g.plural
		}
		segments = append(segments, segment{value: v * g.value, words: words})
	}

	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			// "e" joins the final segment when it is below a hundred or a
			// round hundred: "mil e cem", "dois milhões e vinte", but
			// "mil duzentos e trinta e quatro".
			last := i == len(segments)-1
			if last && (seg.value < 100 || seg.value%100 == 0) {
				b.WriteString(" e ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(seg.words)
	}
	return b.String()
}

func underThousandPT(n int64) string {
	if n == 100 {
		return "cem"
	}
	var parts []string
	if n >= 100 {
		parts = append(parts, ptHundreds[n/100])
		n %= 100
	}
	if n >= 20 {
		parts = append(parts, ptTens[n/10])
		n %= 10
		if n > 0 {
			parts = append(parts, ptUnits[n])
		}
	} else if n > 0 {
		parts = append(parts, ptUnits[n])
	}
	return strings.Join(parts, " e ")
}
