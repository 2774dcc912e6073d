// Package shell interprets the command lines typed by the user. The main
// shell owns the help, exit and version verbs, forwards "crypto ..." lines to
// the crypto shell and everything else to the card shell. Output accumulates
// in an execution log drained by the host after each line.
package shell

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gregLibert/smart-card-shell/pkg/i18n"
	"github.com/gregLibert/smart-card-shell/pkg/tlv"
	"github.com/gregLibert/smart-card-shell/pkg/transport"
)

// Command binds a verb to its handler. Handlers receive the full argument
// vector, verb included.
type Command struct {
	Name string
	Run  func(argv []string) error
}

type commandTable []Command

func (t commandTable) find(name string) (Command, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Result tells the host what to do after a line.
type Result struct {
	Exit bool
}

// Options configures a Shell.
type Options struct {
	Open    transport.Opener
	Help    *i18n.Catalog
	Tags    tlv.Dictionary
	Logger  zerolog.Logger
	Version string
}

// Shell is the top level interpreter. It is safe for concurrent use: the
// reader monitor may deliver events while a line executes.
type Shell struct {
	mu   sync.Mutex
	out  bytes.Buffer
	exit bool

	commands commandTable
	card     *CardShell
	crypto   *CryptoShell
	help     *i18n.Catalog
	version  string
	log      zerolog.Logger
}

// New builds a shell. A nil Help uses the English catalog and a nil Tags the
// built-in tag names.
func New(opts Options) *Shell {
	if opts.Help == nil {
		opts.Help = i18n.English()
	}
	if opts.Tags == nil {
		opts.Tags = tlv.DefaultDictionary()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Shell{help: opts.Help, version: opts.Version, log: opts.Logger}
	s.card = NewCardShell(&s.out, opts.Open, opts.Tags, opts.Logger)
	s.crypto = NewCryptoShell(&s.out, opts.Help)
	s.commands = commandTable{
		{Name: "help", Run: s.printHelp},
		{Name: "exit", Run: s.quit},
		{Name: "version", Run: s.printVersion},
	}
	return s
}

// Execute runs one line. Tokens are split on white space and lower cased.
// Errors are returned untouched; what the handlers printed before failing
// stays in the log.
func (s *Shell) Execute(line string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execute(line)
}

// Turn runs line and drains the log in one step, so text written by
// HandleEvent on another goroutine cannot land in the middle of it.
func (s *Shell) Turn(line string) (Result, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.execute(line)
	text := s.out.String()
	s.out.Reset()
	return res, text, err
}

func (s *Shell) execute(line string) (Result, error) {
	argv := strings.Fields(strings.ToLower(line))
	if len(argv) == 0 {
		return Result{}, nil
	}
	s.log.Debug().Str("verb", argv[0]).Int("args", len(argv)-1).Msg("execute")

	var err error
	if cmd, ok := s.commands.find(argv[0]); ok {
		err = cmd.Run(argv)
	} else if argv[0] == "crypto" {
		err = s.crypto.Execute(argv)
	} else {
		err = s.card.Execute(argv)
	}

	res := Result{Exit: s.exit}
	s.exit = false
	return res, err
}

// Drain returns the text produced since the previous call.
func (s *Shell) Drain() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := s.out.String()
	s.out.Reset()
	return text
}

// HandleEvent records a card movement reported by the reader monitor.
func (s *Shell) HandleEvent(ev transport.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.card.HandleEvent(ev)
}

// Reader returns the reader of the connected card, "" without a card.
func (s *Shell) Reader() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.card.Reader()
}

// Close releases the card and the transport context.
func (s *Shell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.card.Close()
}

func (s *Shell) printHelp([]string) error {
	fmt.Fprint(&s.out, "Main Shell Help:\n")
	for _, cmd := range s.commands {
		fmt.Fprintf(&s.out, "\n%s %s\n", cmd.Name, s.help.Help("main", cmd.Name))
	}
	fmt.Fprint(&s.out, "\n")

	fmt.Fprint(&s.out, "Card Shell Help:\n")
	writeHelp(&s.out, s.help, "card", "", s.card.commands)

	fmt.Fprint(&s.out, "Crypto Shell Help:\n")
	writeHelp(&s.out, s.help, "crypto", "crypto", s.crypto.commands)
	return nil
}

func (s *Shell) quit([]string) error {
	s.exit = true
	return nil
}

func (s *Shell) printVersion([]string) error {
	fmt.Fprintf(&s.out, "%s\n", s.version)
	return nil
}

// writeHelp lists the verbs of a sub shell, each preceded by prefix.
func writeHelp(w io.Writer, catalog *i18n.Catalog, shell, prefix string, commands commandTable) {
	for _, cmd := range commands {
		fmt.Fprintf(w, "\n%s %s %s\n", prefix, cmd.Name, catalog.Help(shell, cmd.Name))
	}
	fmt.Fprint(w, "\n")
}
