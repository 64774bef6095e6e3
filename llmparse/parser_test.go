package llmparse

import (
	"strings"
	"testing"
)

func TestParseStrict_WellFormedJSON(t *testing.T) {
	raw := `{"action":"answer","thoughts":"done","answer":"the answer"}`
	resp, err := ParseStrict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != ActionAnswer || resp.Answer != "the answer" {
		t.Errorf("got %+v", resp)
	}
}

func TestParseStrict_ActionCaseInsensitive(t *testing.T) {
	raw := `{"action":"SEARCH","searchQuery":"golang generics"}`
	resp, err := ParseStrict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != ActionSearch {
		t.Errorf("got action %q, want search", resp.Action)
	}
}

func TestParseStrict_UnknownAction(t *testing.T) {
	raw := `{"action":"ponder","thoughts":"hmm"}`
	resp, err := ParseStrict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != ActionUnknown {
		t.Errorf("got %q, want unknown", resp.Action)
	}
}

func TestParseStrict_RepairsCodeFenceWrapping(t *testing.T) {
	raw := "```json\n{\"action\":\"answer\",\"answer\":\"fine\"}\n```"
	resp, err := ParseStrict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "fine" {
		t.Errorf("got %+v", resp)
	}
}

func TestParseStrict_RepairsSurroundingChatter(t *testing.T) {
	raw := `Sure, here you go: {"action":"answer","answer":"ok"} Hope that helps!`
	resp, err := ParseStrict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "ok" {
		t.Errorf("got %+v", resp)
	}
}

func TestParseStrict_FinalAnswerMarkerFallback(t *testing.T) {
	raw := "I tried to format JSON but gave up.\nFINAL ANSWER: The sky is blue because of Rayleigh scattering."
	resp, err := ParseStrict(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != ActionAnswer {
		t.Errorf("got action %q, want answer", resp.Action)
	}
	if !strings.Contains(resp.Answer, "Rayleigh") {
		t.Errorf("got answer %q", resp.Answer)
	}
}

func TestParseStrict_CompleteFailure(t *testing.T) {
	raw := "this is not json and has no marker at all"
	_, err := ParseStrict(raw)
	if err != ErrParseFailure {
		t.Errorf("got %v, want ErrParseFailure", err)
	}
}

func TestParseLenient_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"plain prose answer",
		"```json\n{\"broken\n```",
		"# Heading\nSome **text** with {braces}",
	}
	for _, raw := range inputs {
		resp := ParseLenient(raw)
		if resp.Action != ActionAnswer {
			t.Errorf("ParseLenient(%q).Action = %q, want answer", raw, resp.Action)
		}
	}
}

func TestParseLenient_StripsHeadingsAndArtifacts(t *testing.T) {
	raw := "## Summary\nThe answer is {42}."
	resp := ParseLenient(raw)
	if strings.Contains(resp.Answer, "#") || strings.Contains(resp.Answer, "{") {
		t.Errorf("expected artefacts stripped, got %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "42") {
		t.Errorf("expected content preserved, got %q", resp.Answer)
	}
}

func TestParse_SelectsModeLenientNeverErrors(t *testing.T) {
	resp, err := Parse("garbage", ModeLenient)
	if err != nil {
		t.Fatalf("lenient mode must never error, got %v", err)
	}
	if resp.Action != ActionAnswer {
		t.Errorf("got %q", resp.Action)
	}
}
