// Package shell is the interactive, line-oriented REPL that sits in front
// of an engine.Engine. It owns no FAT32 semantics of its own: it tokenizes
// one command per line, dispatches to the engine, and prints whatever the
// engine returns or the error it failed with.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dargueta/fat32shell/engine"
)

// Shell reads commands from in and writes output to out, driving one
// engine.Engine.
type Shell struct {
	eng *engine.Engine
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Shell bound to eng, reading commands from in and writing
// output to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *Shell {
	return &Shell{eng: eng, in: bufio.NewScanner(in), out: out}
}

func (s *Shell) prompt() string {
	geom := s.eng.Geometry()
	return fmt.Sprintf("[%s%s]/> ", geom.ImageName, s.eng.Path())
}

// Run drives the REPL until `exit` is issued or the input is exhausted.
// It returns nil on a clean `exit`.
func (s *Shell) Run() error {
	for {
		fmt.Fprint(s.out, s.prompt())
		if !s.in.Scan() {
			return nil
		}

		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		tokens, err := tokenize(line)
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
			continue
		}

		done, err := s.dispatch(tokens)
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
		}
		if done {
			return nil
		}
	}
}

// tokenize splits a command line into whitespace-separated tokens, with one
// exception: a double-quoted run of text (used by `write`'s STRING
// argument) is kept as a single token with the quotes stripped, spaces and
// all.
func tokenize(line string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}

		if line[i] == '"' {
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quoted string")
			}
			tokens = append(tokens, line[i+1:i+1+end])
			i = i + 1 + end + 1
			continue
		}

		start := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		tokens = append(tokens, line[start:i])
	}
	return tokens, nil
}

// dispatch runs one tokenized command. The returned bool is true only for
// `exit`.
func (s *Shell) dispatch(tokens []string) (bool, error) {
	cmd, args := tokens[0], tokens[1:]

	switch cmd {
	case "exit":
		return true, nil

	case "info":
		s.printInfo()
		return false, nil

	case "cd":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: cd NAME")
		}
		return false, s.eng.ChangeDirectory(args[0])

	case "ls":
		names, err := s.eng.List()
		if err != nil {
			return false, err
		}
		for _, n := range names {
			fmt.Fprintln(s.out, n)
		}
		return false, nil

	case "mkdir":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: mkdir NAME")
		}
		return false, s.eng.CreateDirectory(args[0])

	case "creat":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: creat NAME")
		}
		return false, s.eng.CreateFile(args[0])

	case "rm":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: rm NAME")
		}
		return false, s.eng.RemoveFile(args[0])

	case "rmdir":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: rmdir NAME")
		}
		return false, s.eng.RemoveDirectory(args[0])

	case "open":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: open NAME MODE")
		}
		mode, err := engine.ParseMode(args[1])
		if err != nil {
			return false, err
		}
		return false, s.eng.Open(args[0], mode)

	case "close":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: close NAME")
		}
		return false, s.eng.CloseFile(args[0])

	case "lsof":
		for _, info := range s.eng.ListOpen() {
			fmt.Fprintf(s.out, "%d %s %s %d %s\n", info.Index, info.Name, info.Mode, info.Offset, s.eng.Path())
		}
		return false, nil

	case "lseek":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: lseek NAME OFFSET")
		}
		offset, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("invalid offset %q", args[1])
		}
		return false, s.eng.Seek(args[0], uint32(offset))

	case "read":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: read NAME SIZE")
		}
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("invalid size %q", args[1])
		}
		data, err := s.eng.Read(args[0], uint32(n))
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, string(data))
		return false, nil

	case "write":
		if len(args) != 2 {
			return false, fmt.Errorf(`usage: write NAME "STRING"`)
		}
		return false, s.eng.Write(args[0], []byte(args[1]))

	default:
		return false, fmt.Errorf("unrecognized command: %s", cmd)
	}
}

func (s *Shell) printInfo() {
	g := s.eng.Geometry()
	fmt.Fprintf(s.out, "bytesPerSector: %d\n", g.BytesPerSector)
	fmt.Fprintf(s.out, "sectorsPerCluster: %d\n", g.SectorsPerCluster)
	fmt.Fprintf(s.out, "rootCluster: %d\n", g.RootCluster)
	fmt.Fprintf(s.out, "totalClusters: %d\n", g.TotalClusters)
	fmt.Fprintf(s.out, "sectorsPerFAT: %d\n", g.SectorsPerFAT)
	fmt.Fprintf(s.out, "imageSize: %d\n", g.ImageSize)
}
