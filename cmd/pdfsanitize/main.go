package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/benedoc-inc/pdfsanitize/sanitize"
	"github.com/h2non/filetype"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		input  = flag.String("input", "", "Path to input PDF file")
		output = flag.String("output", "", "Path to sanitized output PDF file")
		links  = flag.Bool("links", true, "Remove external link annotations, URI/Launch/GoToR/GoToE/SubmitForm/ImportData actions, embedded URLs, and UNC paths")
		forms  = flag.Bool("forms", true, "Remove AcroForm dictionary, XFA references, widget annotations, and XFA submit tags")
		js     = flag.Bool("js", true, "Remove JavaScript OpenAction, the Names/JavaScript name tree, and JS literal bodies")
		strict = flag.Bool("strict", false, "Treat a structural save failure as fatal instead of falling back to byte-level sanitization")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("Error: -input flag is required")
	}
	if *output == "" {
		log.Fatal("Error: -output flag is required")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Error reading PDF: %v", err)
	}

	if kind, err := filetype.Match(data); err != nil || kind.MIME.Value != "application/pdf" {
		log.Fatalf("Error: -input does not look like a PDF file")
	}

	opts := sanitize.SanitizeOptions{
		RemoveLinks:      *links,
		RemoveForms:      *forms,
		RemoveJavascript: *js,
		Strict:           *strict,
	}

	cleaned, report, err := sanitize.Sanitize(data, opts)
	if err != nil {
		log.Fatalf("Error sanitizing PDF: %v", err)
	}

	if err := os.WriteFile(*output, cleaned, 0644); err != nil {
		log.Fatalf("Error writing output PDF: %v", err)
	}

	if len(report.Items) == 0 {
		fmt.Println("No active content found.")
	}
	for _, item := range report.Items {
		fmt.Println(item)
	}
	if report.Warning != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", report.Warning)
	}
}
