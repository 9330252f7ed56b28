// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/cellsim/cellsim/logger"
)

const (
	prompt      = "> "
	minWidth    = 40
	historyFile = ".cellsim_history"
)

// Run reads commands from stdin until exit, end of input or cancellation of the runner's context.
// A terminal gets line editing and history; any other input is read as a script.
func (rt *CmdRunner) Run(stdin *os.File, stdout io.Writer) error {
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return rt.RunScript(stdin, stdout)
	}
	if width, _, err := term.GetSize(fd); err == nil && width >= minWidth {
		rt.width = width
	}
	return rt.runInteractive()
}

// RunScript executes each line of r as a command. It stops at the first exit command.
func (rt *CmdRunner) RunScript(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if rt.ctx.Err() != nil {
			return nil
		}
		if rt.handleLine(scanner.Text(), w) {
			return nil
		}
	}
	return errors.Wrap(scanner.Err(), "read commands")
}

func (rt *CmdRunner) runInteractive() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "start line editor")
	}
	defer l.Close()

	go func() {
		<-rt.ctx.Done()
		_ = l.Close()
	}()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "read command")
		}
		if rt.handleLine(line, l.Stdout()) {
			return nil
		}
	}
}

// handleLine executes one command and reports its outcome. It returns true on exit.
func (rt *CmdRunner) handleLine(line string, w io.Writer) bool {
	if line = strings.TrimSpace(line); line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	err := rt.Execute(line, w)
	if err == ErrExit {
		return true
	}
	if err != nil {
		logger.Debugf("command %q failed: %v", line, err)
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return false
	}
	_, _ = fmt.Fprintf(w, "Done\n")
	return false
}
