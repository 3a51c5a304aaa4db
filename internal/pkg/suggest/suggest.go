package suggest

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tone selects the voice of a generated caption.
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneBold         = "bold"
)

var openers = map[string][]string{
	ToneProfessional: {
		"Sharing some thoughts on %s.",
		"A quick look at what we learned about %s.",
		"Here is why %s matters right now.",
	},
	ToneCasual: {
		"Okay, let's talk about %s.",
		"Been thinking about %s a lot lately.",
		"Quick one about %s today.",
	},
	ToneBold: {
		"Most teams get %s completely wrong.",
		"Stop ignoring %s.",
		"%s is the lever nobody is pulling.",
	},
}

var closers = []string{
	"What has your experience been?",
	"Curious how others handle this.",
	"More on this soon.",
	"Agree or disagree?",
}

// Caption composes a deterministic post suggestion for a topic and tone. The
// same topic/tone pair always yields the same caption, which keeps retries
// from silently consuming extra generation credits upstream.
func Caption(topic, tone string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}

	pool, ok := openers[strings.ToLower(strings.TrimSpace(tone))]
	if !ok {
		pool = openers[ToneProfessional]
	}

	h := fnv.New32a()
	h.Write([]byte(topic + "|" + tone))
	seed := h.Sum32()

	opener := fmt.Sprintf(pool[int(seed)%len(pool)], topic)
	closer := closers[int(seed>>8)%len(closers)]

	return opener + "\n\n" + closer + "\n\n" + hashtag(topic), nil
}

func hashtag(topic string) string {
	words := strings.Fields(strings.ToLower(topic))
	var b strings.Builder
	b.WriteString("#")
	for _, w := range words {
		// Upper-case the first rune, not the first byte, so multibyte
		// topics keep valid UTF-8.
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError && size <= 1 {
			b.WriteString(w)
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}
