// Command pointset-import loads a text file of "x y" lines into the local
// point set store used by the triangulator's sqlite source.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	dbPath := flag.String("db", "pointsets.db", "path to sqlite DB file")
	id := flag.String("id", "", "point set ID (a new UUID when empty)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: pointset-import [-db path] [-id ID] points.txt\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to open input: %v", err)
	}
	defer f.Close()

	storedID, n, err := RunImport(context.Background(), *dbPath, *id, f)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("stored %d points in %s", n, *dbPath)
	fmt.Println(storedID)
}
