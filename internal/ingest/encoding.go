// Package ingest turns payment-app CSV exports into canonical ledger rows:
// encoding-resilient staging into versioned per-strategy tables, then
// strategy-dispatched transforms with a sensitive-word redaction pass, all
// audited in import_runs.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	ErrSourceNotFound    = errors.New("source file not found")
	ErrEncodingExhausted = errors.New("no candidate encoding decodes the file")
)

// legacyEncodings are tried after UTF-8, in order. GB2312 is a subset of GBK
// so it needs no slot of its own.
var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gbk", simplifiedchinese.GBK},
	{"gb18030", simplifiedchinese.GB18030},
}

// decodeFile reads path and decodes it as UTF-8, then GBK, then GB18030.
// A candidate is accepted only when the full decode succeeds and produces no
// U+FFFD replacement runes; the x/text decoders substitute on bad input
// rather than fail, and silently accepting mojibake corrupts every downstream
// field.
func decodeFile(path string) (text string, encName string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}

	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}
	for _, cand := range legacyEncodings {
		decoded, err := cand.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		if strings.ContainsRune(string(decoded), utf8.RuneError) {
			continue
		}
		return string(decoded), cand.name, nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrEncodingExhausted, path)
}
