// Package textenc turns raw blob bytes into text without ever failing.
package textenc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// MinConfidence is the chardet confidence (0-100) needed before a detected
// charset is trusted for transcoding.
const MinConfidence = 50

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Result is decoded text plus how it was obtained. Lossy is set when any byte
// sequence had to be replaced with U+FFFD.
type Result struct {
	Text    string
	Lossy   bool
	Charset string
}

// Decode never returns an error: content that is neither UTF-8 nor a confidently
// detected charset has its invalid sequences substituted instead.
func Decode(b []byte, detect bool) Result {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return Result{Text: string(b), Charset: "UTF-8"}
	}

	if detect {
		if res, ok := transcode(b); ok {
			return res
		}
	}

	return Result{
		Text:    strings.ToValidUTF8(string(b), string(utf8.RuneError)),
		Lossy:   true,
		Charset: "UTF-8",
	}
}

func transcode(b []byte) (Result, bool) {
	best, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || best == nil || best.Confidence < MinConfidence {
		return Result{}, false
	}
	if strings.EqualFold(best.Charset, "UTF-8") {
		return Result{}, false
	}

	enc, err := htmlindex.Get(best.Charset)
	if err != nil {
		return Result{}, false
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(out) {
		return Result{}, false
	}
	text := string(out)
	return Result{
		Text:    text,
		Lossy:   strings.ContainsRune(text, utf8.RuneError),
		Charset: best.Charset,
	}, true
}

// LineCount counts line terminators plus one; text without a terminator is
// still one line.
func LineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
