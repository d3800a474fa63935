// Command mesh-plot renders a Mesh payload (as returned by
// GET /triangulation/{id}) to a PNG or SVG image.
package main

import (
	"flag"
	"log"
	"os"
)

func main() {
	in := flag.String("in", "", "Mesh binary file")
	out := flag.String("out", "mesh.png", "output image (.png or .svg)")
	title := flag.String("title", "", "plot title (defaults to the input file name)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("failed to read mesh: %v", err)
	}
	if *title == "" {
		*title = *in
	}
	if err := RenderFile(data, *title, *out); err != nil {
		log.Fatalf("render failed: %v", err)
	}
	log.Printf("wrote %s", *out)
}
