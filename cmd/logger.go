package cmd

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// newLogger creates the CLI logger; colors only when w is a terminal
func newLogger(w io.Writer, verbose bool, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
		return log
	}

	term := isTerminal(w)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   term,
		DisableColors: !term,
		FullTimestamp: true,
	})

	return log
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
