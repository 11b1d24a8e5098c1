package validation

import (
	"strings"
	"unicode"
)

var profanityWords = buildWordList(
	// profanity
	"fuck", "shit", "bitch", "ass", "dick", "cock", "pussy", "cunt",
	"whore", "slut", "bastard", "motherfucker", "fucker", "shithead",
	"asshole", "dumbass", "jackass", "dickhead", "cockhead", "pussycat",
	"fuk", "fuq", "fck", "shyt", "puss", "puzzy", "kunt",
	// offensive
	"nazi", "hitler", "racist", "sexist", "homophobe", "bigot",
	"terrorist", "pedo", "pedophile", "rapist", "murderer", "killer",
	// nsfw
	"porn", "xxx", "adult", "sex", "sexual", "nude", "naked", "penis",
	"vagina", "boobs", "tits", "butt",
	// gaming
	"noob", "nub", "newb", "newbie", "scrub", "trash", "garbage", "useless",
	"worthless", "stupid", "idiot", "moron", "retard", "retarded",
)

func buildWordList(words ...string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// normalizeForProfanity lowercases text and drops digits and ASCII punctuation
// so that separators and leetspeak digits cannot split a word.
func normalizeForProfanity(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsDigit(r) || (r < unicode.MaxASCII && unicode.IsPunct(r)) || (r < unicode.MaxASCII && unicode.IsSymbol(r)) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ContainsProfanity(text string) bool {
	normalized := normalizeForProfanity(text)
	for _, w := range profanityWords {
		if strings.Contains(normalized, w) {
			return true
		}
	}
	return false
}
