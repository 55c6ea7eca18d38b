package problem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/extension"
)

// Tuple files follow the layout of DIMACS files: comment lines start
// with "c", a problem line "p <allowed|forbidden> <arity> <count>"
// comes before the tuples, then one tuple per line.
//
//	c all equal over {0,1}
//	p allowed 2 2
//	0 0
//	1 1

func polarity(feasible bool) string {
	if feasible {
		return "allowed"
	}
	return "forbidden"
}

type tupleError struct {
	line int
	msg  string
}

func (e tupleError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

func malformedTuples(line int, format string, args ...interface{}) error {
	return &fd.MalformedInputError{What: "tuple file", Err: tupleError{line: line, msg: fmt.Sprintf(format, args...)}}
}

// ReadTuples parses a tuple file. The declared count must match.
func ReadTuples(r io.Reader) (*extension.Tuples, error) {
	var (
		t      *extension.Tuples
		arity  int
		count  int
		lineNo int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == 'c' {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "p" {
			if t != nil {
				return nil, malformedTuples(lineNo, "second problem line")
			}
			if len(fields) != 4 {
				return nil, malformedTuples(lineNo, "problem line %q", line)
			}
			switch fields[1] {
			case "allowed":
				t = extension.NewTuples(true)
			case "forbidden":
				t = extension.NewTuples(false)
			default:
				return nil, malformedTuples(lineNo, "unknown polarity %q", fields[1])
			}
			var err error
			if arity, err = strconv.Atoi(fields[2]); err != nil || arity <= 0 {
				return nil, malformedTuples(lineNo, "arity %q", fields[2])
			}
			if count, err = strconv.Atoi(fields[3]); err != nil || count < 0 {
				return nil, malformedTuples(lineNo, "tuple count %q", fields[3])
			}
			continue
		}
		if t == nil {
			return nil, malformedTuples(lineNo, "tuple before the problem line")
		}
		if len(fields) != arity {
			return nil, malformedTuples(lineNo, "%d values, expected %d", len(fields), arity)
		}
		row := make([]int, arity)
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, malformedTuples(lineNo, "value %q", f)
			}
			row[i] = v
		}
		if err := t.Add(row...); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tuple file: %w", err)
	}
	if t == nil {
		return nil, malformedTuples(lineNo, "no problem line")
	}
	if t.Len() != count {
		return nil, malformedTuples(lineNo, "%d tuples, the problem line declares %d", t.Len(), count)
	}
	return t, nil
}

// WriteTuples writes t in the format ReadTuples accepts.
func WriteTuples(w io.Writer, t *extension.Tuples) error {
	bw := bufio.NewWriter(w)
	arity := t.Arity()
	if arity < 0 {
		arity = 1
	}
	fmt.Fprintf(bw, "p %s %d %d\n", polarity(t.Feasible()), arity, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.Get(i)
		for j, v := range row {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
