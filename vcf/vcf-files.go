// elContam: estimating contamination of diploid samples from VCF files.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elcontam/blob/master/LICENSE.txt>.

package vcf

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/exascience/elcontam/utils"
)

const (
	descriptionKey = "Description"
	idKey          = "ID"
	numberKey      = "Number"
	typeKey        = "Type"
)

// parseMetaField parses one key=value pair of a structured
// meta-information line. Values may be double-quoted.
func (sc *StringScanner) parseMetaField() (key, value string) {
	sc.SkipSpace()
	key = sc.readUntilBytes([]byte{'=', ',', '>'})
	if sc.atEnd() || sc.peek() != '=' {
		sc.setErr("invalid key=value pair in a VCF meta-information line: %v", sc.data)
		return
	}
	sc.index++
	if sc.atEnd() || sc.peek() != '"' {
		return key, sc.readUntilBytes([]byte{',', '>'})
	}
	sc.index++
	var buf strings.Builder
	for ; !sc.atEnd(); sc.index++ {
		switch c := sc.peek(); c {
		case '"':
			sc.index++
			return key, buf.String()
		case '\\':
			sc.index++
			if sc.atEnd() {
				break
			}
			_ = buf.WriteByte(sc.peek())
		default:
			_ = buf.WriteByte(c)
		}
	}
	sc.setErr("missing closing \" in a VCF meta-information line: %v", sc.data)
	return key, buf.String()
}

func parseNumber(value string) (int32, error) {
	switch value {
	case "a", "A":
		return NumberA, nil
	case "r", "R":
		return NumberR, nil
	case "g", "G":
		return NumberG, nil
	case ".":
		return NumberDot, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil || n < 0 {
		return InvalidNumber, errors.New("invalid Number entry " + value)
	}
	return int32(n), nil
}

func parseType(value string) Type {
	switch value {
	case "Integer":
		return Integer
	case "Float":
		return Float
	case "Flag":
		return Flag
	case "Character":
		return Character
	case "String":
		return String
	default:
		return InvalidType
	}
}

// ParseFormatInformation parses the <...> part of an INFO or FORMAT
// meta-information line.
func (sc *StringScanner) ParseFormatInformation() *FormatInformation {
	if sc.atEnd() || sc.peek() != '<' {
		sc.setErr("missing open angle bracket in a VCF INFO/FORMAT meta-information line: %v", sc.data)
		return nil
	}
	sc.index++
	format := NewFormatInformation()
	for sc.err == nil {
		key, value := sc.parseMetaField()
		switch key {
		case idKey:
			format.ID = utils.Intern(value)
		case descriptionKey:
			format.Description = value
		case numberKey:
			number, err := parseNumber(value)
			if err != nil {
				sc.setErr("%v in a VCF INFO/FORMAT meta-information line: %v", err, sc.data)
			}
			format.Number = number
		case typeKey:
			if format.Type = parseType(value); format.Type == InvalidType {
				sc.setErr("unknown type in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			}
		default:
			format.Fields[key] = value
		}
		sc.SkipSpace()
		if sc.atEnd() {
			sc.setErr("missing closing > in a VCF INFO/FORMAT meta-information line: %v", sc.data)
			break
		}
		if sc.peek() == '>' {
			sc.index++
			break
		}
		sc.index++ // ','
	}
	switch {
	case sc.err != nil:
	case format.ID == nil:
		sc.setErr("missing ID in a VCF INFO/FORMAT meta-information line: %v", sc.data)
	case format.Number <= InvalidNumber:
		sc.setErr("missing Number entry in a VCF INFO/FORMAT meta-information line: %v", sc.data)
	case format.Type == InvalidType:
		sc.setErr("missing Type in a VCF INFO/FORMAT meta-information line: %v", sc.data)
	}
	return format
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// ParseHeader parses a VCF header. It returns the number of lines
// read, so that callers can report line numbers for variants.
func ParseHeader(reader *bufio.Reader) (hdr *Header, lines int, err error) {
	line, err := getLine(reader)
	if err != nil {
		return nil, 0, errors.New("empty VCF file")
	}
	lines++
	if !strings.HasPrefix(line, fileFormatVersionLinePrefix) {
		return nil, 0, errors.New("invalid first line in a VCF file")
	}
	hdr = NewHeader()
	hdr.FileFormat = line
	var sc StringScanner
	for {
		line, err = getLine(reader)
		if err != nil {
			return nil, lines, errors.New("unexpected end of VCF header")
		}
		lines++
		if !strings.HasPrefix(line, "#") {
			return nil, lines, errors.New("missing #CHROM line in a VCF header")
		}
		if !strings.HasPrefix(line, "##") {
			break
		}
		sc.Reset(line[2:])
		key, found := sc.readUntilByte('=')
		switch {
		case !found:
			return nil, lines, errors.New("invalid syntax in a VCF header: " + line)
		case key == "fileformat":
			return nil, lines, errors.New("multiple file format meta-information lines in a VCF file")
		case key == "INFO":
			hdr.Infos = append(hdr.Infos, sc.ParseFormatInformation())
		case key == "FORMAT":
			hdr.Formats = append(hdr.Formats, sc.ParseFormatInformation())
		default:
			hdr.Meta[key] = append(hdr.Meta[key], sc.data[sc.index:])
		}
		if sc.err != nil {
			return nil, lines, sc.err
		}
	}
	hdr.Columns = strings.Split(line[1:], "\t")
	if len(hdr.Columns) < len(DefaultHeaderColumns) {
		return nil, lines, errors.New("too few columns in a VCF header: " + line)
	}
	for i, column := range DefaultHeaderColumns {
		if hdr.Columns[i] != column {
			return nil, lines, errors.New("unexpected column " + hdr.Columns[i] + " in a VCF header")
		}
	}
	return hdr, lines, nil
}

// FieldParser is an abstraction for parsing VCF fields
type FieldParser func(*StringScanner) interface{}

type entryParser func(sc *StringScanner, end []byte) interface{}

var (
	endOfInfoEntry   = []byte{',', ';'}
	endOfFormatEntry = []byte{',', ':'}
)

func missing(s string) bool {
	return s == "" || s == "."
}

func parseIntegerEntry(sc *StringScanner, end []byte) interface{} {
	s := sc.readUntilBytes(end)
	if missing(s) {
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		sc.setErr("%v in VCF data line: %v", err, sc.data)
		return nil
	}
	return int(i)
}

func parseFloatEntry(sc *StringScanner, end []byte) interface{} {
	s := sc.readUntilBytes(end)
	if missing(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		sc.setErr("%v in VCF data line: %v", err, sc.data)
		return nil
	}
	return f
}

func parseCharacterEntry(sc *StringScanner, end []byte) interface{} {
	s := sc.readUntilBytes(end)
	if missing(s) {
		return nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		sc.setErr("invalid Character entry %v in VCF data line: %v", s, sc.data)
		return nil
	}
	return r
}

func parseStringEntry(sc *StringScanner, end []byte) interface{} {
	s := sc.readUntilBytes(end)
	if missing(s) {
		return nil
	}
	return s
}

func makeFieldParser(entry entryParser, number int32, end []byte) FieldParser {
	if number == 1 {
		return func(sc *StringScanner) interface{} {
			return entry(sc, end)
		}
	}
	return func(sc *StringScanner) interface{} {
		var result []interface{}
		for {
			result = append(result, entry(sc, end))
			if sc.err != nil || sc.atEnd() || sc.peek() != ',' {
				return result
			}
			sc.index++
		}
	}
}

func entryParserFor(t Type) (entryParser, error) {
	switch t {
	case Integer:
		return parseIntegerEntry, nil
	case Float:
		return parseFloatEntry, nil
	case Character:
		return parseCharacterEntry, nil
	case String:
		return parseStringEntry, nil
	default:
		return nil, errors.New("invalid field Type")
	}
}

func parseFlag(*StringScanner) interface{} {
	return true
}

// CreateInfoParser creates a specific VCF info section parser for the given format information
func CreateInfoParser(format *FormatInformation) (FieldParser, error) {
	if format.Type == Flag {
		if format.Number != 0 {
			return nil, errors.New("INFO Type Flag with Number != 0")
		}
		return parseFlag, nil
	}
	entry, err := entryParserFor(format.Type)
	if err != nil {
		return nil, err
	}
	return makeFieldParser(entry, format.Number, endOfInfoEntry), nil
}

// CreateFormatParser creates a specific VCF format section parser for the given format information
func CreateFormatParser(format *FormatInformation) (FieldParser, error) {
	entry, err := entryParserFor(format.Type)
	if err != nil {
		return nil, err
	}
	return makeFieldParser(entry, format.Number, endOfFormatEntry), nil
}

var (
	genericInfoParser   = makeFieldParser(parseStringEntry, NumberDot, endOfInfoEntry)
	genericFormatParser = makeFieldParser(parseStringEntry, 1, []byte{':'})
)

// VariantParser is an optimized parser for VCF variant lines.
//
// NSamples can be decreased as necessary to parse fewer samples, including down to zero.
type VariantParser struct {
	InfoParsers, FormatParsers utils.SmallMap
	NSamples                   int
}

// NewVariantParser creates a VariantParser for the given VCF header.
func (header *Header) NewVariantParser() (*VariantParser, error) {
	var vp VariantParser
	for _, format := range header.Infos {
		parser, err := CreateInfoParser(format)
		if err != nil {
			return nil, err
		}
		vp.InfoParsers = append(vp.InfoParsers, utils.SmallMapEntry{Key: format.ID, Value: parser})
	}
	for _, format := range header.Formats {
		parser, err := CreateFormatParser(format)
		if err != nil {
			return nil, err
		}
		vp.FormatParsers = append(vp.FormatParsers, utils.SmallMapEntry{Key: format.ID, Value: parser})
	}
	vp.NSamples = len(header.Samples())
	return &vp, nil
}

// column returns the next tab-separated column. Only the last column
// of a line may lack a trailing tab.
func (sc *StringScanner) column(name string, last bool) string {
	col, found := sc.readUntilByte('\t')
	if !found && !last {
		sc.setErr("missing %v column in VCF data line: %v", name, sc.data)
	}
	return col
}

func splitList(s string, separator string) []string {
	if missing(s) {
		return nil
	}
	return strings.Split(s, separator)
}

var passList = []utils.Symbol{PASS}

func parseFilter(s string) []utils.Symbol {
	switch s {
	case "", ".":
		return nil
	case "PASS":
		return passList
	}
	var result []utils.Symbol
	for _, f := range strings.Split(s, ";") {
		result = append(result, utils.Intern(f))
	}
	return result
}

func (sc *StringScanner) parseInfo(col string, parsers utils.SmallMap) (result utils.SmallMap) {
	if missing(col) {
		return nil
	}
	var info StringScanner
	info.Reset(col)
	for !info.atEnd() {
		key := utils.Intern(info.readUntilBytes([]byte{'=', ';'}))
		var value interface{} = true
		if !info.atEnd() && info.peek() == '=' {
			info.index++
			if parser, ok := parsers.Get(key); ok {
				value = parser.(FieldParser)(&info)
			} else {
				value = genericInfoParser(&info)
			}
		}
		if info.err != nil {
			sc.setErr("%v, in INFO column", info.err)
			return nil
		}
		result = append(result, utils.SmallMapEntry{Key: key, Value: value})
		if !info.atEnd() {
			if info.peek() != ';' {
				sc.setErr("invalid INFO column in VCF data line: %v", sc.data)
				return nil
			}
			info.index++
		}
	}
	return result
}

func (sc *StringScanner) parseSample(col string, keys []utils.Symbol, parsers []FieldParser) utils.SmallMap {
	var sample StringScanner
	sample.Reset(col)
	result := make(utils.SmallMap, 0, len(keys))
	for j, key := range keys {
		value := parsers[j](&sample)
		if sample.err != nil {
			sc.setErr("%v, in sample column", sample.err)
			return nil
		}
		result = append(result, utils.SmallMapEntry{Key: key, Value: value})
		if sample.atEnd() {
			break // trailing fields may be dropped
		}
		if sample.peek() != ':' {
			sc.setErr("invalid sample column %v in VCF data line: %v", col, sc.data)
			return nil
		}
		sample.index++
	}
	return result
}

// ParseVariant parses a VCF variant line. It returns nil when the
// line cannot be parsed; Err then reports why.
func (sc *StringScanner) ParseVariant(vp *VariantParser) *Variant {
	var variant Variant
	variant.Chrom = sc.column("CHROM", false)
	if pos := sc.column("POS", false); missing(pos) {
		variant.Pos = -1
	} else if p, err := strconv.ParseInt(pos, 10, 32); err != nil {
		sc.setErr("%v in VCF data line: %v", err, sc.data)
	} else {
		variant.Pos = int32(p)
	}
	variant.ID = splitList(sc.column("ID", false), ";")
	variant.Ref = sc.column("REF", false)
	variant.Alt = splitList(sc.column("ALT", false), ",")
	if qual := sc.column("QUAL", false); !missing(qual) {
		if q, err := strconv.ParseFloat(qual, 64); err != nil {
			sc.setErr("%v in VCF data line: %v", err, sc.data)
		} else {
			variant.Qual = q
		}
	}
	variant.Filter = parseFilter(sc.column("FILTER", false))
	variant.Info = sc.parseInfo(sc.column("INFO", vp.NSamples == 0), vp.InfoParsers)
	if vp.NSamples > 0 && sc.err == nil {
		for _, key := range strings.Split(sc.column("FORMAT", false), ":") {
			variant.GenotypeFormat = append(variant.GenotypeFormat, utils.Intern(key))
		}
		parsers := make([]FieldParser, len(variant.GenotypeFormat))
		for p, key := range variant.GenotypeFormat {
			if parser, ok := vp.FormatParsers.Get(key); ok {
				parsers[p] = parser.(FieldParser)
			} else {
				parsers[p] = genericFormatParser
			}
		}
		for i := 0; i < vp.NSamples && sc.err == nil; i++ {
			col := sc.column("sample", i == vp.NSamples-1)
			variant.GenotypeData = append(variant.GenotypeData, sc.parseSample(col, variant.GenotypeFormat, parsers))
		}
	}
	if sc.err != nil {
		return nil
	}
	return &variant
}

// InputFile represents a VCF file for input, either plain text or
// gzip/BGZF compressed.
type InputFile struct {
	rc io.Closer
	gz io.Closer
	*bufio.Reader
}

// Open a VCF file for input. Compression is detected from the file
// contents rather than the extension.
//
// If the name is "/dev/stdin", then the input is read from os.Stdin
func Open(name string) (*InputFile, error) {
	var file *os.File
	if name == "/dev/stdin" {
		file = os.Stdin
	} else {
		var err error
		if file, err = os.Open(name); err != nil {
			return nil, err
		}
	}
	buffered := bufio.NewReader(file)
	reader, err := utils.HandleGzip(buffered)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	input := &InputFile{rc: file}
	if reader == io.Reader(buffered) {
		input.Reader = buffered
	} else {
		input.gz = reader.(io.Closer)
		input.Reader = bufio.NewReader(reader)
	}
	return input, nil
}

// Close the VCF input file.
func (input *InputFile) Close() (err error) {
	if input.gz != nil {
		err = input.gz.Close()
	}
	if input.rc != os.Stdin {
		if nerr := input.rc.Close(); err == nil {
			err = nerr
		}
	}
	return err
}
