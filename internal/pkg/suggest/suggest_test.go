package suggest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCaptionIsDeterministic(t *testing.T) {
	a, err := Caption("developer marketing", ToneCasual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Caption("developer marketing", ToneCasual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical captions for identical input:\n%q\n%q", a, b)
	}
}

func TestCaptionContainsTopicAndHashtag(t *testing.T) {
	got, err := Caption("open source", ToneBold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(strings.ToLower(got), "open source") {
		t.Fatalf("caption does not mention topic: %q", got)
	}
	if !strings.Contains(got, "#OpenSource") {
		t.Fatalf("caption missing hashtag: %q", got)
	}
}

func TestCaptionMultibyteTopicHashtag(t *testing.T) {
	got, err := Caption("émotion déborde", ToneCasual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("caption is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, "#ÉmotionDéborde") {
		t.Fatalf("caption missing title-cased multibyte hashtag: %q", got)
	}
}

func TestCaptionUnknownToneFallsBack(t *testing.T) {
	if _, err := Caption("go testing", "sarcastic"); err != nil {
		t.Fatalf("unexpected error for unknown tone: %v", err)
	}
}

func TestCaptionEmptyTopic(t *testing.T) {
	if _, err := Caption("   ", ToneProfessional); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}
