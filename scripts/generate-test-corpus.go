//go:build ignore

// Package main generates a synthetic document corpus for benchmarking
// the document store's indexing and search paths.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var mdTemplate = `# %s

## Overview

%s covers %s for teams adopting it across %s projects.

## Key Points

- %s is evaluated against %s on a recurring basis
- Teams record %s decisions in this document
- Revisions are tracked at the bottom of the file

## Details

%s requires coordination between %s and %s. The %s process
typically begins with a review of %s, followed by a decision on
how it affects %s going forward.

## Open Questions

- How does %s interact with %s under load?
- What %s should the team adopt for %s?

## Revision History

- Initial draft covering %s and %s.
`

var txtTemplate = `%s

%s is a short note about %s written for %s.
It touches on %s and how that relates to %s, without
going into the detail a full %s document would need.

Related: %s, %s.
`

// Word pools for generating realistic document topics.
var (
	topics = []string{
		"onboarding", "release process", "incident response", "data retention",
		"access control", "vendor review", "architecture review", "runbook",
		"postmortem", "design review", "migration plan", "rollout plan",
		"capacity planning", "on-call rotation", "security review", "compliance audit",
		"backup strategy", "disaster recovery", "style guide", "glossary",
	}
	teams = []string{
		"platform", "infrastructure", "data", "security", "product",
		"support", "finance", "legal", "design", "growth",
	}
	qualifiers = []string{
		"quarterly", "annual", "ad-hoc", "recurring", "one-time",
		"cross-team", "internal", "external-facing", "draft", "finalized",
	}
)

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	subdirs := []string{"markdown", "text"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	mdFiles := *numFiles * 70 / 100 // 70% markdown, matching typical document roots
	txtFiles := *numFiles - mdFiles

	generated := 0

	for i := 0; i < mdFiles; i++ {
		if err := generateMDFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating markdown file %d: %v\n", i, err)
			continue
		}
		generated++
	}

	for i := 0; i < txtFiles; i++ {
		if err := generateTXTFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating text file %d: %v\n", i, err)
			continue
		}
		generated++
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func title(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}

func generateMDFile(index int) error {
	topic := randomWord(topics)
	team := randomWord(teams)
	qualifier := randomWord(qualifiers)
	other := randomWord(topics)

	content := fmt.Sprintf(mdTemplate,
		title(topic),
		title(topic), topic, team,
		title(topic), other,
		qualifier,
		title(topic), team, randomWord(teams), qualifier,
		other, team,
		title(topic), other,
		qualifier, topic,
		topic, other,
	)

	filename := filepath.Join(*outputDir, "markdown", fmt.Sprintf("%s-%d.md", strings.ReplaceAll(topic, " ", "-"), index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateTXTFile(index int) error {
	topic := randomWord(topics)
	team := randomWord(teams)
	other := randomWord(topics)

	content := fmt.Sprintf(txtTemplate,
		title(topic),
		title(topic), topic, team,
		topic, other,
		topic,
		other, team,
	)

	filename := filepath.Join(*outputDir, "text", fmt.Sprintf("%s-%d.txt", strings.ReplaceAll(topic, " ", "-"), index))
	return os.WriteFile(filename, []byte(content), 0644)
}
