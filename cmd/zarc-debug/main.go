// Command zarc-debug opens a Zarc archive, reads its directory, and prints
// every edition and file it recorded. It exists to exercise and
// inspect the core library, not as a replacement for a pack/unpack CLI
// (out of scope for the core, per the external-interfaces contract).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/zarc-format/zarc"
)

var inputFlag string

func init() {
	flag.StringVar(&inputFlag, "f", "", "archive filename")
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("failed to initialize logger", err)
	}
	defer logger.Sync()

	if inputFlag == "" {
		logger.Fatal("archive filename (-f) is required")
	}

	source := zarc.NewFileByteSource(inputFlag)

	dec, err := zarc.Open(source, zarc.WithDLogger(logger))
	if err != nil {
		logger.Fatal("failed to open archive", zap.Error(err))
	}

	if err := dec.ReadDirectory(); err != nil {
		logger.Fatal("failed to read directory", zap.Error(err))
	}

	editions, err := dec.Editions()
	if err != nil {
		logger.Fatal("failed to list editions", zap.Error(err))
	}
	for _, ed := range editions {
		fmt.Printf("edition %d  written %s  digest-type %s\n", ed.Number, ed.WrittenAt, ed.DigestType)
	}

	files, err := dec.Files()
	if err != nil {
		logger.Fatal("failed to list files", zap.Error(err))
	}
	for _, f := range files {
		kind := "file"
		if f.Special != nil && f.Special.Kind != nil {
			kind = f.Special.Kind.String()
		}
		fmt.Printf("%-10s %s\n", kind, f.Name.String())
	}

	os.Exit(0)
}
