package lexical

import "testing"

func TestScore_IdenticalTextScoresNearOne(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog near the river bank"
	got := Score(text, text)
	if got < 0.95 {
		t.Errorf("Score(identical) = %v, want >= 0.95", got)
	}
}

func TestScore_UnrelatedTextScoresLow(t *testing.T) {
	a := "quantum mechanics describes the behavior of subatomic particles"
	b := "the bakery down the street sells fresh sourdough every morning"
	got := Score(a, b)
	if got > 0.3 {
		t.Errorf("Score(unrelated) = %v, want a low score", got)
	}
}

func TestScore_EmptyInputsScoreZero(t *testing.T) {
	if got := Score("", "something"); got != 0 {
		t.Errorf("Score(\"\", x) = %v, want 0", got)
	}
	if got := Score("something", ""); got != 0 {
		t.Errorf("Score(x, \"\") = %v, want 0", got)
	}
}

func TestScore_UsesAsymmetricPathForDifferentLengths(t *testing.T) {
	short := "rising costs of living affect every household budget"
	long := "economists have long debated the causes of inflation, but " +
		"rising costs of living affect every household budget across " +
		"the country regardless of income bracket or region, and the " +
		"debate continues without a clear resolution in sight today"
	got := Score(long, short)
	if got <= 0 {
		t.Errorf("Score(long, short) = %v, want > 0 (short text largely contained)", got)
	}
	if want := asymmetric(tokenize(long), tokenize(short)); got != want {
		t.Errorf("Score(long, short) = %v, want the asymmetric score %v", got, want)
	}
}

func TestJaccard_DisjointSetsScoreZero(t *testing.T) {
	if got := jaccard([]string{"a", "b"}, []string{"c", "d"}); got != 0 {
		t.Errorf("jaccard(disjoint) = %v, want 0", got)
	}
}

func TestLcsRatio_IdenticalSequencesScoreOne(t *testing.T) {
	seq := []string{"a", "b", "c", "d"}
	if got := lcsRatio(seq, seq); got != 1 {
		t.Errorf("lcsRatio(identical) = %v, want 1", got)
	}
}
