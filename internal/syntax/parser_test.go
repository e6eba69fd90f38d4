package syntax

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/sush/internal/scan"
)

func parseAll(t *testing.T, src string) ([]Element, string) {
	t.Helper()
	var errw bytes.Buffer
	p := NewParser(DefaultMaxDepth)
	b := scan.New(src)
	var out []Element
	for b.Len() > 0 {
		if e := p.TopLevel(b, &errw); e != nil {
			out = append(out, e)
		}
	}
	return out, errw.String()
}

func mustJob(t *testing.T, src string) (*Job, *scan.Buffer) {
	t.Helper()
	b := scan.New(src)
	j := NewParser(DefaultMaxDepth).ParseJob(b)
	require.NotNil(t, j, "parse %q: %v", src, b.Err())
	require.False(t, b.Failed())
	return j, b
}

func TestJobRoundTrip(t *testing.T) {
	inputs := []string{
		"echo hi\n",
		"  echo   hi  # trailing\n\n",
		"a && b || c\n",
		"a &&\n\n  b\n",
		"cat <in | sort -r |& uniq >out 2>&1 ; rest",
		"echo \"x $y $(date)\" 'q' \\ z &",
		"(cd /tmp; ls) > list\n",
		"X=1 env\n",
	}
	for _, in := range inputs {
		j, b := mustJob(t, in)
		consumed := in[:len(in)-b.Len()]
		assert.Equal(t, consumed, j.Text(), "input %q", in)
		assert.Len(t, j.PipelineEnds, len(j.Pipelines), "input %q", in)
	}
}

func TestJobConnectors(t *testing.T) {
	j, _ := mustJob(t, "a && b || c\n")
	require.Len(t, j.Pipelines, 3)
	assert.Equal(t, []string{"&&", "||", ""}, j.PipelineEnds)

	j, b := mustJob(t, "a &&\n  b\nnext\n")
	require.Len(t, j.Pipelines, 2)
	assert.Equal(t, []string{"&&", ""}, j.PipelineEnds)
	assert.Equal(t, "next\n", b.Remaining())
}

func TestJobTerminators(t *testing.T) {
	j, b := mustJob(t, "sleep 1 & echo x")
	assert.True(t, j.Background())
	assert.Equal(t, "echo x", b.Remaining())

	j, _ = mustJob(t, "echo a; echo b")
	assert.Equal(t, ";", j.End)
	assert.False(t, j.Background())
}

func TestJobComment(t *testing.T) {
	j, b := mustJob(t, "echo a#b # note\nnext")
	sc := j.Pipelines[0].Commands[0].(*SimpleCommand)
	require.Len(t, sc.Words, 2)
	assert.Equal(t, "a#b", sc.Words[1].Text())
	assert.Equal(t, "next", b.Remaining())
}

func TestPipeline(t *testing.T) {
	j, _ := mustJob(t, "a | b |& c\n")
	pl := j.Pipelines[0]
	assert.Len(t, pl.Commands, 3)
	assert.Equal(t, []string{"|", "|&"}, pl.Pipes)
}

func TestRedirects(t *testing.T) {
	j, _ := mustJob(t, "cat 2>&1 <in >>out &>all\n")
	sc := j.Pipelines[0].Commands[0].(*SimpleCommand)
	require.Len(t, sc.Redirects, 4)
	assert.Equal(t, 2, sc.Redirects[0].Fd)
	assert.Equal(t, scan.OutputAnd, sc.Redirects[0].Op)
	assert.Equal(t, "1", sc.Redirects[0].Target.Text())
	assert.Equal(t, -1, sc.Redirects[1].Fd)
	assert.Equal(t, scan.Input, sc.Redirects[1].Op)
	assert.Equal(t, scan.Append, sc.Redirects[2].Op)
	assert.Equal(t, scan.AndOutput, sc.Redirects[3].Op)
	assert.Equal(t, "all", sc.Redirects[3].Target.Text())
}

func TestSetVariables(t *testing.T) {
	els, errs := parseAll(t, "a=1 b=$x\nc=2 env\n")
	require.Empty(t, errs)
	require.Len(t, els, 2)

	sv, ok := els[0].(*SetVariables)
	require.True(t, ok)
	require.Len(t, sv.Assigns, 2)
	assert.Equal(t, "b", sv.Assigns[1].Name)

	j, ok := els[1].(*Job)
	require.True(t, ok)
	sc := j.Pipelines[0].Commands[0].(*SimpleCommand)
	assert.Len(t, sc.Assigns, 1)
	assert.Len(t, sc.Words, 1)
}

func TestEmptyAssignment(t *testing.T) {
	els, _ := parseAll(t, "a=\n")
	require.Len(t, els, 1)
	sv := els[0].(*SetVariables)
	assert.Nil(t, sv.Assigns[0].Value)
}

func TestDoubleQuotedEscapes(t *testing.T) {
	j, _ := mustJob(t, `echo "a\"b\$c\d"`)
	w := j.Pipelines[0].Commands[0].(*SimpleCommand).Words[1]
	dq := w.Subwords[0].(*DoubleQuoted)
	require.Len(t, dq.Parts, 1)
	assert.Equal(t, `a"b$c\d`, dq.Parts[0].(*Literal).Value)
}

func TestParameters(t *testing.T) {
	j, _ := mustJob(t, "echo $? $12 ${name} $ x$")
	words := j.Pipelines[0].Commands[0].(*SimpleCommand).Words
	assert.Equal(t, "?", words[1].Subwords[0].(*Parameter).Name)
	assert.Equal(t, "12", words[2].Subwords[0].(*Parameter).Name)
	assert.Equal(t, "name", words[3].Subwords[0].(*Parameter).Name)
	assert.Equal(t, "$", words[4].Subwords[0].(*Literal).Value)
	assert.Len(t, words[5].Subwords, 2)
}

func TestCommandSubstitutionParse(t *testing.T) {
	p := NewParser(DefaultMaxDepth)

	b := scan.New("$(echo hi) rest")
	s := p.ParseCommandSubstitution(b)
	require.NotNil(t, s)
	assert.Equal(t, "$(echo hi)", s.Text())
	assert.NotNil(t, s.Command)
	assert.Equal(t, " rest", b.Remaining())

	b = scan.New("$(echo hi")
	assert.Nil(t, p.ParseCommandSubstitution(b))
	require.True(t, b.Failed())
	assert.True(t, b.Err().Incomplete)

	b = scan.New("(echo hi)")
	assert.Nil(t, p.ParseCommandSubstitution(b))
	assert.False(t, b.Failed())
}

func TestTopLevelRecovery(t *testing.T) {
	var errw bytes.Buffer
	p := NewParser(DefaultMaxDepth)
	b := scan.New(";; echo ok\necho more\n")

	assert.Nil(t, p.TopLevel(b, &errw))
	assert.Equal(t, "sush: syntax error near unexpected token `;;'\n", errw.String())
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.Failed())

	// Second call takes the empty-input path and prints nothing.
	assert.Nil(t, p.TopLevel(b, &errw))
	assert.Equal(t, "sush: syntax error near unexpected token `;;'\n", errw.String())
}

func TestTopLevelRecordedReason(t *testing.T) {
	els, errs := parseAll(t, "echo 'abc\n")
	assert.Empty(t, els)
	assert.Equal(t, "sush: unexpected EOF while looking for matching `''\n", errs)

	_, errs = parseAll(t, "cat <<EOF\n")
	assert.Equal(t, "sush: here-document is not supported\n", errs)

	_, errs = parseAll(t, "echo >\n")
	assert.Equal(t, "sush: syntax error near unexpected token `newline'\n", errs)
}

func TestDoubleSemicolonLeftAfterJob(t *testing.T) {
	els, errs := parseAll(t, "echo a;;\n")
	require.Len(t, els, 1)
	assert.Equal(t, "echo a", els[0].Text())
	assert.Equal(t, "sush: syntax error near unexpected token `;;'\n", errs)
}

func TestMaxDepth(t *testing.T) {
	var errw bytes.Buffer
	p := NewParser(2)
	b := scan.New("(((echo)))\n")
	assert.Nil(t, p.TopLevel(b, &errw))
	assert.Equal(t, "sush: maximum nesting depth exceeded\n", errw.String())

	b = scan.New("((echo))\n")
	assert.NotNil(t, p.TopLevel(b, &errw))
}

func TestNeedsMore(t *testing.T) {
	p := NewParser(DefaultMaxDepth)
	more := []string{
		"echo 'abc\n",
		"echo \"abc\n",
		"a &&\n",
		"echo a |\n",
		"(echo a\n",
		"x=$(echo\n",
		"echo ${x\n",
		"echo a \\\n",
	}
	for _, in := range more {
		assert.True(t, p.NeedsMore(scan.New(in)), "input %q", in)
	}
	done := []string{
		"",
		"echo a\n",
		"echo )\n",
		"echo >\n",
		"# comment\n",
	}
	for _, in := range done {
		assert.False(t, p.NeedsMore(scan.New(in)), "input %q", in)
	}
}

func TestNeedsMoreLeavesBuffer(t *testing.T) {
	b := scan.New("echo 'a\n")
	NewParser(0).NeedsMore(b)
	assert.Equal(t, "echo 'a\n", b.Remaining())
	assert.False(t, b.Failed())

	b.Feed("b'\n")
	els, errs := parseAll(t, b.Remaining())
	assert.Empty(t, errs)
	require.Len(t, els, 1)
}

func TestFprintGolden(t *testing.T) {
	g := goldie.New(t)
	cases := map[string]string{
		"job":         "echo \"hi $USER\" 'x' >out.txt && (cd /tmp; ls) | wc -l &",
		"assignments": "X=$(echo a\\ b) Y=${HOME}\nX=1 env\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			els, errs := parseAll(t, src)
			require.Empty(t, errs)
			var out bytes.Buffer
			for _, e := range els {
				require.NoError(t, Fprint(&out, e))
			}
			g.Assert(t, name, out.Bytes())
		})
	}
}
