package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/dspsim/insts"
)

// ParseWord parses one program word written as 40 binary digits or as a
// 0x-prefixed hex number. Underscores are ignored.
func ParseWord(s string) (insts.Word, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")

	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	case len(s) == insts.InstLen:
		v, err = strconv.ParseUint(s, 2, 64)
	default:
		return 0, fmt.Errorf("word %q is neither %d binary digits nor hex", s, insts.InstLen)
	}
	if err != nil {
		return 0, fmt.Errorf("bad word %q: %w", s, err)
	}
	if v > uint64(insts.WordMask) {
		return 0, fmt.Errorf("word %q exceeds %d bits", s, insts.InstLen)
	}

	return insts.Word(v), nil
}

// ReadWords reads one word per line. Blank lines and text after '#' are
// skipped.
func ReadWords(r io.Reader) ([]insts.Word, error) {
	var words []insts.Word

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		w, err := ParseWord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		words = append(words, w)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return words, nil
}

// ReadProgram decodes a program image into a program store at the segment's
// code base. The program is not resolved.
func ReadProgram(r io.Reader, seg Segments) (*insts.Program, error) {
	words, err := ReadWords(r)
	if err != nil {
		return nil, err
	}
	seg = seg.WithDefaults()
	if uint32(len(words)) > seg.CodeSize {
		return nil, fmt.Errorf("program has %d words, code segment holds %d", len(words), seg.CodeSize)
	}

	prog := insts.NewProgram(seg.CodeBase)
	for _, w := range words {
		if _, err := prog.Append(w); err != nil {
			return nil, err
		}
	}

	return prog, nil
}

// LoadProgram reads and resolves a program image file.
func LoadProgram(path string, seg Segments, opts insts.ResolveOptions) (*insts.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := ReadProgram(f, seg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := prog.Resolve(opts); err != nil {
		return nil, err
	}

	return prog, nil
}

// WriteProgram writes the program's words in the image format, one binary
// word per line.
func WriteProgram(w io.Writer, prog *insts.Program) error {
	for _, inst := range prog.Instructions() {
		if _, err := fmt.Fprintln(w, inst.Word.Bits()); err != nil {
			return err
		}
	}
	return nil
}
