package ocr

import (
	"strconv"
	"strings"
)

// tesseract TSV columns
const (
	tsvLevel = iota
	tsvPage
	tsvBlock
	tsvPar
	tsvLine
	tsvWord
	tsvLeft
	tsvTop
	tsvWidth
	tsvHeight
	tsvConf
	tsvText
	tsvColumns
)

const tsvWordLevel = "5"

// ParseTSV reads `tesseract ... tsv` output. Words keep their engine
// confidence; Text rebuilds the lines in reading order.
func ParseTSV(out []byte) Result {
	var (
		res      Result
		b        strings.Builder
		lastLine string
	)
	for i, ln := range strings.Split(string(out), "\n") {
		if i == 0 || len(ln) == 0 {
			continue // header
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < tsvColumns || cols[tsvLevel] != tsvWordLevel {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[tsvText:], "\t"))
		conf, err := strconv.ParseFloat(cols[tsvConf], 64)
		if text == "" || err != nil || conf < 0 {
			continue
		}
		res.Words = append(res.Words, Word{
			Text:       text,
			X:          atof(cols[tsvLeft]),
			Y:          atof(cols[tsvTop]),
			Width:      atof(cols[tsvWidth]),
			Height:     atof(cols[tsvHeight]),
			Confidence: conf,
		})

		key := cols[tsvPage] + "." + cols[tsvBlock] + "." + cols[tsvPar] + "." + cols[tsvLine]
		switch {
		case b.Len() == 0:
		case key != lastLine:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(text)
		lastLine = key
	}
	res.Text = Normalize(b.String())
	return res
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}
