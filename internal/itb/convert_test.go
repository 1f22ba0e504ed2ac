package itb

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
)

const sampleListing = `
debugger.elf:     file format elf32-littleriscv

Contents of section .text:
 0000 97010000 93810100 01450000 37830040  .........E..7..@

Disassembly of section .text:

00000000 <_start>:
_start():
/work/core-v-verif/cv32e40x/tests/programs/custom/debug_test/start.S:12
   0:	00000197          	auipc	gp,0x0
   4:	00018193          	mv	gp,gp
/work/core-v-verif/cv32e40x/tests/programs/custom/debug_test/start.S:14
   8:	4501                	li	a0,0

0000000a <end_handler_incr_mepc>:
end_handler_incr_mepc():
/work/core-v-verif/cv32e40x/tests/programs/custom/debug_test/debugger.S:47
       // Expect DCSR
       li   t1, 4<<28
   a:	40008337          	lui	t1,0x40008
   e:	00a31363          	bne	t1,a0,14 <end_handler_incr_mepc+0xa>
  12:	8082                	ret
`

const sampleTable = `#0
0 _start start.S 12 00000197 2 auipc gp,0x0
#0
4 _start start.S 12 00018193 2 mv gp,gp
#0
8 _start start.S 14 4501 2 li a0,0
#2
#       // Expect DCSR
#       li   t1, 4<<28
10 end_handler_incr_mepc debugger.S 47 40008337 2 lui t1,0x40008
#0
14 end_handler_incr_mepc debugger.S 47 00a31363 3 bne t1,a0,14 <end_handler_incr_mepc+0xa>
#0
18 end_handler_incr_mepc debugger.S 47 8082 1 ret
`

func convertString(t *testing.T, in string) (string, Stats) {
	t.Helper()
	var out bytes.Buffer
	stats, err := Convert(strings.NewReader(in), &out)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return out.String(), stats
}

func TestConvertSampleListing(t *testing.T) {
	got, stats := convertString(t, sampleListing)
	if got != sampleTable {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, sampleTable)
	}

	want := Stats{
		Lines:        19,
		Functions:    2,
		Sources:      3,
		Instructions: 6,
		Annotations:  2,
		Unclaimed:    5,
	}
	if stats != want {
		t.Errorf("stats = %s, want %s", spew.Sdump(stats), spew.Sdump(want))
	}
}

func TestConvertScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "function, source and compressed instruction",
			in:   "00000100 <foo>:\n/a/b/foo.c:10\n100:\t1234          \taddi a0,a0,1\n",
			want: "#0\n256 foo foo.c 10 1234 2 addi a0,a0,1\n",
		},
		{
			name: "instruction without any context",
			in:   "101:\t12345678  \tadd a1,a1,a2\n",
			want: "#0\n257 None None 0 12345678 2 add a1,a1,a2\n",
		},
		{
			name: "function without source marker",
			in:   "00000100 <foo>:\nfoo():\n100:\t1234  \tnop\n",
			want: "#0\n256 foo None 0 1234 1 nop\n",
		},
		{
			name: "source marker without function header",
			in:   "/a/b/foo.c:10\n  x = 1;\n100:\t1234  \tnop\n",
			want: "#1\n#  x = 1;\n256 None foo.c 10 1234 1 nop\n",
		},
		{
			name: "missing trailing newline",
			in:   "00000100 <foo>:\n100:\t1234  \tnop",
			want: "#0\n256 foo None 0 1234 1 nop\n",
		},
		{
			name: "crlf line endings",
			in:   "00000100 <foo>:\r\n/a/b/foo.c:10\r\n  x = 1;\r\n100:\t1234  \tnop\r\n",
			want: "#1\n#  x = 1;\n256 foo foo.c 10 1234 1 nop\n",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := convertString(t, tt.in)
			if got != tt.want {
				t.Errorf("output mismatch\ngot:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestConvertAnnotationCap(t *testing.T) {
	var in strings.Builder
	in.WriteString("00000100 <foo>:\n/a/b/foo.c:10\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&in, " 0%d00 00000000 00000000  ........\n", i)
	}
	in.WriteString("100:\t1234  \tnop\n")

	got, stats := convertString(t, in.String())
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if lines[0] != "#10" {
		t.Fatalf("header = %q, want #10", lines[0])
	}
	if len(lines) != 12 {
		t.Fatalf("got %d output lines, want 12:\n%s", len(lines), got)
	}
	if lines[10] != "# 0900 00000000 00000000  ........" {
		t.Errorf("last kept annotation = %q", lines[10])
	}
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
}

func TestConvertFunctionPersistsAcrossSources(t *testing.T) {
	in := "00000100 <foo>:\n" +
		"/a/foo.c:1\n" +
		"100:\t1234  \tnop\n" +
		"/a/bar.h:7\n" +
		"102:\t1234  \tnop\n" +
		"00000104 <baz>:\n" +
		"104:\t1234  \tnop\n"
	want := "#0\n256 foo foo.c 1 1234 1 nop\n" +
		"#0\n258 foo bar.h 7 1234 1 nop\n" +
		"#0\n260 baz bar.h 7 1234 1 nop\n"

	if got, _ := convertString(t, in); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestConvertMarkersDiscardStaleAnnotations(t *testing.T) {
	in := "/a/foo.c:1\n" +
		"stale before source\n" +
		"/a/foo.c:2\n" +
		"kept\n" +
		"100:\t1234  \tnop\n" +
		"stale before function\n" +
		"00000102 <bar>:\n" +
		"102:\t1234  \tnop\n"
	want := "#1\n#kept\n256 None foo.c 2 1234 1 nop\n" +
		"#0\n258 bar foo.c 2 1234 1 nop\n"

	if got, _ := convertString(t, in); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	first, _ := convertString(t, sampleListing)
	second, _ := convertString(t, sampleListing)
	if first != second {
		t.Fatalf("outputs differ between runs\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestConvertFraming(t *testing.T) {
	var in strings.Builder
	in.WriteString("00000000 <f>:\n")
	for i := 0; i < 40; i++ {
		if i%7 == 0 {
			fmt.Fprintf(&in, "/src/f.c:%d\n", i)
		}
		for j := 0; j < i%13; j++ {
			fmt.Fprintf(&in, "  comment %d.%d\n", i, j)
		}
		fmt.Fprintf(&in, "%x:\t%08x          \taddi\ta0,a0,%d\n", i*4, i, i)
	}

	got, stats := convertString(t, in.String())
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

	records := 0
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "#") {
			t.Fatalf("line %d: expected header, got %q", i+1, lines[i])
		}
		n, err := strconv.Atoi(lines[i][1:])
		if err != nil {
			t.Fatalf("line %d: bad header %q", i+1, lines[i])
		}
		if n < 0 || n > MaxAnnotationLines {
			t.Fatalf("line %d: count %d out of range", i+1, n)
		}
		for j := 1; j <= n; j++ {
			if !strings.HasPrefix(lines[i+j], "#  comment ") {
				t.Fatalf("line %d: expected annotation, got %q", i+j+1, lines[i+j])
			}
		}
		rec := lines[i+n+1]
		if strings.HasPrefix(rec, "#") || len(strings.SplitN(rec, " ", 7)) != 7 {
			t.Fatalf("line %d: bad record %q", i+n+2, rec)
		}
		records++
		i += n + 2
	}

	if records != 40 || stats.Instructions != 40 {
		t.Errorf("records = %d, stats.Instructions = %d, want 40", records, stats.Instructions)
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

type failReader struct{ data string }

func (r *failReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, errors.New("connection reset")
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestConvertIOErrors(t *testing.T) {
	t.Run("write failure", func(t *testing.T) {
		_, err := Convert(strings.NewReader(sampleListing), failWriter{})
		if err == nil || !strings.Contains(err.Error(), "disk full") {
			t.Fatalf("err = %v, want disk full", err)
		}
	})

	t.Run("read failure keeps emitted entries", func(t *testing.T) {
		var out bytes.Buffer
		in := &failReader{data: "00000100 <foo>:\n100:\t1234  \tnop\n"}
		stats, err := Convert(in, &out)
		if err == nil || !strings.Contains(err.Error(), "connection reset") {
			t.Fatalf("err = %v, want connection reset", err)
		}
		if stats.Instructions != 1 {
			t.Errorf("Instructions = %d, want 1", stats.Instructions)
		}
		if want := "#0\n256 foo None 0 1234 1 nop\n"; out.String() != want {
			t.Errorf("flushed output = %q, want %q", out.String(), want)
		}
	})
}

func TestConvertDebugLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs)
	logger.SetLevel(log.DebugLevel)

	var out bytes.Buffer
	in := "00000100 <_ZN3foo3barEv>:\n/a/b/foo.c:10\n100:\t1234  \tnop\n"
	if _, err := Convert(strings.NewReader(in), &out, WithLogger(logger)); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	for _, want := range []string{"foo::bar()", "Instruction", "Conversion finished"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("debug log missing %q:\n%s", want, logs.String())
		}
	}
	if strings.Contains(out.String(), "Instruction") {
		t.Error("diagnostics leaked into the table output")
	}
}
