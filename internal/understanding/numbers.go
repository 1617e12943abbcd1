package understanding

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

var errNoNumberWords = errors.New("no number words found")

var errMalformedNumber = errors.New("malformed number words")

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100, "thousand": 1000, "million": 1000000, "billion": 1000000000,
}

// wordFallback is returned when number words cannot be read. It does not
// follow the caller's default.
const wordFallback = "1"

// ExtractInteger returns the first run of digits in text. Without digits it
// falls back to reading English number words ("three weeks" -> "3"), and
// finally to "1". def is kept for callers that pass one; the word path never
// consults it.
func ExtractInteger(text string, def int) string {
	if match := digitRun.FindString(text); match != "" {
		return match
	}

	n, err := wordsToNumber(text)
	if err != nil {
		return wordFallback
	}
	return strconv.Itoa(n)
}

// wordsToNumber reads number words out of free text, ignoring any word that is
// not part of the american number system. Reading stops at "point", so only
// the integer part of a decimal is kept.
func wordsToNumber(text string) (int, error) {
	text = strings.ToLower(strings.ReplaceAll(text, "-", " "))

	var words []string
	for _, w := range strings.Fields(text) {
		if w == "point" {
			break
		}
		if _, ok := numberWords[w]; ok {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return 0, errNoNumberWords
	}

	billion := indexOf(words, "billion")
	million := indexOf(words, "million")
	thousand := indexOf(words, "thousand")
	if count(words, "billion") > 1 || count(words, "million") > 1 || count(words, "thousand") > 1 {
		return 0, errMalformedNumber
	}
	if (thousand > -1 && (thousand < million || thousand < billion)) || (million > -1 && million < billion) {
		return 0, errMalformedNumber
	}

	if len(words) == 1 {
		return numberWords[words[0]], nil
	}

	total := 0
	if billion > -1 {
		m, err := formNumber(words[:billion])
		if err != nil {
			return 0, err
		}
		total += m * 1000000000
	}
	if million > -1 {
		start := 0
		if billion > -1 {
			start = billion + 1
		}
		m, err := formNumber(words[start:million])
		if err != nil {
			return 0, err
		}
		total += m * 1000000
	}
	if thousand > -1 {
		start := 0
		if million > -1 {
			start = million + 1
		} else if billion > -1 {
			start = billion + 1
		}
		m, err := formNumber(words[start:thousand])
		if err != nil {
			return 0, err
		}
		total += m * 1000
	}

	var rest []string
	switch {
	case thousand > -1:
		rest = words[thousand+1:]
	case million > -1:
		rest = words[million+1:]
	case billion > -1:
		rest = words[billion+1:]
	default:
		rest = words
	}
	if len(rest) > 0 {
		h, err := formNumber(rest)
		if err != nil {
			return 0, err
		}
		total += h
	}

	return total, nil
}

// formNumber combines up to four words below a thousand, e.g.
// "two hundred forty five".
func formNumber(words []string) (int, error) {
	if len(words) == 0 {
		return 0, errMalformedNumber
	}
	n := make([]int, len(words))
	for i, w := range words {
		n[i] = numberWords[w]
	}
	switch len(n) {
	case 4:
		return n[0]*n[1] + n[2] + n[3], nil
	case 3:
		return n[0]*n[1] + n[2], nil
	case 2:
		if n[0] == 100 || n[1] == 100 {
			return n[0] * n[1], nil
		}
		return n[0] + n[1], nil
	default:
		return n[0], nil
	}
}

func indexOf(words []string, target string) int {
	for i, w := range words {
		if w == target {
			return i
		}
	}
	return -1
}

func count(words []string, target string) int {
	c := 0
	for _, w := range words {
		if w == target {
			c++
		}
	}
	return c
}
