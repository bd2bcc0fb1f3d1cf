package bardata

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/common/convert"
)

var (
	errUnsupportedFormat = errors.New("unsupported bar file format")
	csvColumns           = []string{"symbol", "time", "open", "high", "low", "close", "volume"}
)

// LoadFile reads bars from a .csv or .jsonl file
func LoadFile(path string, finder *asset.Finder) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f, finder)
	case ".jsonl", ".ndjson":
		return LoadJSONLines(f, finder)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, path)
	}
}

// LoadCSV reads bars from CSV with a header row naming the columns symbol,
// time, open, high, low, close and volume in any order
func LoadCSV(r io.Reader, finder *asset.Finder) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i := range header {
		idx[strings.ToLower(strings.TrimSpace(header[i]))] = i
	}
	for _, c := range csvColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", errMissingColumn, c)
		}
	}

	var bars []Bar
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		b, err := parseFields(finder, func(col string) string { return record[idx[col]] })
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// LoadJSONLines reads one JSON object per line. Numeric fields may be JSON
// numbers or strings.
func LoadJSONLines(r io.Reader, finder *asset.Finder) ([]Bar, error) {
	scanner := bufio.NewScanner(r)
	var (
		bars []Bar
		line int
	)
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var parseErr error
		b, err := parseFields(finder, func(col string) string {
			v, vt, _, err := jsonparser.Get(data, col)
			if err != nil {
				if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
					parseErr = err
				}
				return ""
			}
			if vt == jsonparser.Null {
				return ""
			}
			return string(v)
		})
		if parseErr != nil {
			return nil, fmt.Errorf("line %d: %w", line, parseErr)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, scanner.Err()
}

func parseFields(finder *asset.Finder, field func(col string) string) (Bar, error) {
	sym := field("symbol")
	if sym == "" {
		return Bar{}, fmt.Errorf("%w: symbol", errMissingColumn)
	}
	a, err := finder.LookupSymbol(sym)
	if err != nil {
		return Bar{}, err
	}
	rawTime := field("time")
	if rawTime == "" {
		return Bar{}, fmt.Errorf("%w: time", errMissingColumn)
	}
	ts, err := convert.TimeFromString(rawTime)
	if err != nil {
		return Bar{}, err
	}
	b := Bar{Asset: a, Time: ts}
	for _, f := range []struct {
		col string
		dst *decimal.Decimal
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
		{"volume", &b.Volume},
	} {
		*f.dst, err = convert.DecimalFromString(field(f.col))
		if err != nil {
			return Bar{}, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	return b, nil
}
