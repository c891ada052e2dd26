// Package hexdump renders decoded packets and raw frame bytes for
// interactive inspection: a classic offset/hex/ASCII dump with lipgloss
// dimming for zero bytes, and a syntax-highlighted Go-syntax dump of a
// decoded packet's field values, grounded in the teacher's highlight
// package (which runs SQL text through a chroma lexer/terminal256
// formatter rather than hand-rolling ANSI escapes).
package hexdump

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	goLexer   chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
)

func init() {
	goLexer = lexers.Get("go")
	formatter = formatters.Get("terminal256")
	style = styles.Get("monokai")
}

var (
	offsetStyle = lipgloss.NewStyle().Faint(true)
	zeroStyle   = lipgloss.NewStyle().Faint(true)
	asciiStyle  = lipgloss.NewStyle().Faint(true)
)

// Bytes renders data as a 16-byte-per-row offset/hex/ASCII dump, the way
// `hexdump -C` does, with zero bytes and the ASCII gutter dimmed via
// lipgloss so non-zero payload stands out on an ANSI terminal.
func Bytes(data []byte) string {
	var out strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		out.WriteString(offsetStyle.Render(fmt.Sprintf("%08x", off)))
		out.WriteString("  ")
		for i := 0; i < 16; i++ {
			if i < len(row) {
				out.WriteString(hexByte(row[i]))
			} else {
				out.WriteString("   ")
			}
			if i == 7 {
				out.WriteString(" ")
			}
		}
		out.WriteString(" |")
		out.WriteString(asciiStyle.Render(asciiGutter(row)))
		out.WriteString("|\n")
	}
	return strings.TrimRight(out.String(), "\n")
}

func hexByte(b byte) string {
	s := fmt.Sprintf("%02x ", b)
	if b == 0 {
		return zeroStyle.Render(s)
	}
	return s
}

func asciiGutter(row []byte) string {
	var b strings.Builder
	for _, c := range row {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Packet renders msg's Go-syntax representation (%#v) with chroma's Go
// lexer and a terminal256 formatter, the same pipeline the teacher's
// highlight.SQL uses for SQL statement text. On any tokenising/formatting
// error the plain %#v string is returned unchanged, matching
// highlight.SQL's own error-tolerant fallback.
func Packet(msg any) string {
	src := fmt.Sprintf("%#v", msg)
	if goLexer == nil {
		return src
	}
	iterator, err := goLexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return strings.TrimRight(buf.String(), "\n")
}
