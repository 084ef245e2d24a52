package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestRunStartPosition(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	err := run([]string{"--depth", "3", "--threads", "2", "--hash-mb", "4", "--time-ms", "5000"}, &out)
	is.NoErr(err)
	is.True(strings.Contains(out.String(), "bestmove "))
	is.True(strings.Contains(out.String(), "thread  1:"))
}

func TestRunBadSFEN(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	err := run([]string{"--sfen", "not a position"}, &out)
	is.True(err != nil)
}
