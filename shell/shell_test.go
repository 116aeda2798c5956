package shell

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_SplitsOnWhitespace(t *testing.T) {
	tokens, err := tokenize("mkdir SUBDIR")
	require.NoError(t, err)
	assert.Equal(t, []string{"mkdir", "SUBDIR"}, tokens)
}

func TestTokenize_KeepsQuotedStringAsOneToken(t *testing.T) {
	tokens, err := tokenize(`write DATA "hello world"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"write", "DATA", "hello world"}, tokens)
}

func TestTokenize_UnterminatedQuoteIsError(t *testing.T) {
	_, err := tokenize(`write DATA "hello`)
	require.Error(t, err)
}

func TestTokenize_CollapsesRepeatedSpaces(t *testing.T) {
	tokens, err := tokenize("ls   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ls"}, tokens)
}

func TestDispatch_ExitReturnsDoneWithoutTouchingTheEngine(t *testing.T) {
	var out bytes.Buffer
	s := &Shell{eng: nil, in: bufio.NewScanner(strings.NewReader("")), out: &out}

	done, err := s.dispatch([]string{"exit"})
	require.NoError(t, err)
	assert.True(t, done)
}

func TestDispatch_UnrecognizedCommandIsError(t *testing.T) {
	var out bytes.Buffer
	s := &Shell{eng: nil, in: bufio.NewScanner(strings.NewReader("")), out: &out}

	_, err := s.dispatch([]string{"frobnicate"})
	require.Error(t, err)
}

func TestDispatch_WrongArgCountIsUsageError(t *testing.T) {
	var out bytes.Buffer
	s := &Shell{eng: nil, in: bufio.NewScanner(strings.NewReader("")), out: &out}

	_, err := s.dispatch([]string{"cd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}
