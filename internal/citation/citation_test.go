package citation

import "testing"

func TestHasCitation_DetectsAuthorYear(t *testing.T) {
	if !HasCitation("As stated in (Smith, 2020), the results hold.") {
		t.Error("expected citation to be detected for (Name, YYYY)")
	}
}

func TestHasCitation_DetectsBracketedNumber(t *testing.T) {
	if !HasCitation("prior work [12] established this bound") {
		t.Error("expected citation to be detected for [N]")
	}
}

func TestHasCitation_DetectsDOI(t *testing.T) {
	if !HasCitation("see 10.1234/abcde for details") {
		t.Error("expected citation to be detected for DOI prefix")
	}
}

func TestHasCitation_DetectsBareURL(t *testing.T) {
	if !HasCitation("full text at https://example.com/paper") {
		t.Error("expected citation to be detected for bare URL")
	}
}

func TestHasCitation_PlainTextHasNoCitation(t *testing.T) {
	if HasCitation("the quick brown fox jumps over the lazy dog") {
		t.Error("expected no citation to be detected")
	}
}

func TestApply_ReducesScoreByFixedPenalty(t *testing.T) {
	got := Apply(0.9, "As stated in (Smith, 2020), the results hold.", "Unrelated Paper", nil)
	want := 0.9 * 0.85
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Apply() = %v, want %v", got, want)
	}
}

func TestApply_LeavesUncitedScoreUnchanged(t *testing.T) {
	got := Apply(0.9, "no citation markers here at all", "", nil)
	if got != 0.9 {
		t.Errorf("Apply() = %v, want 0.9 unchanged", got)
	}
}

func TestApply_ExemptsMatchAgainstItsOwnCitedSource(t *testing.T) {
	got := Apply(0.9, "As stated in (Smith, 2020), the results hold.", "Smith 2020: A Study of Results", nil)
	if got != 0.9 {
		t.Errorf("Apply() = %v, want 0.9 unchanged when matched doc is the cited source", got)
	}
}

func TestApply_ExemptsViaMetadataWhenTitleDoesNotMatch(t *testing.T) {
	meta := map[string]string{"author": "Smith", "year": "2020"}
	got := Apply(0.9, "As stated in (Smith, 2020), the results hold.", "Untitled Document", meta)
	if got != 0.9 {
		t.Errorf("Apply() = %v, want 0.9 unchanged when metadata identifies the cited source", got)
	}
}

func TestApply_PenalizesWhenCitedSourceDiffersFromMatch(t *testing.T) {
	got := Apply(0.9, "As stated in (Smith, 2020), the results hold.", "Jones 2019: An Earlier Work", nil)
	want := 0.9 * 0.85
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Apply() = %v, want %v when matched doc is not the cited source", got, want)
	}
}

func TestApply_NonAuthorYearMarkersNeverExempt(t *testing.T) {
	got := Apply(0.9, "prior work [12] established this bound", "Document [12]", nil)
	want := 0.9 * 0.85
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Apply() = %v, want %v: bracketed markers carry no author to match", got, want)
	}
}
