package extractor

import (
	"fmt"
	"strings"
)

func identityPrompt(filename string) string {
	var b strings.Builder
	b.WriteString("You identify TV episodes from filenames.\n")
	fmt.Fprintf(&b, "Filename: %s\n", filename)
	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(`{"show": "<show name>", "season": <number>, "episode": <number>}` + "\n")
	b.WriteString("If the filename does not identify a season or episode, use null for that field. Never guess numbers.")
	return b.String()
}

func correctivePrompt(subject, previous string) string {
	var b strings.Builder
	b.WriteString("Your previous answer was not valid JSON.\n")
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Previous answer: %s\n", previous)
	b.WriteString("Respond again with only the JSON object, no commentary, no code fences.")
	return b.String()
}

func detectPrompt(filenames []string) string {
	var b strings.Builder
	b.WriteString("These files are episodes of one TV show season:\n")
	for _, name := range filenames {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(`{"show_name": "<show name>", "season": <number>, "start_episode": <number>, "confidence": <0.0-1.0>}`)
	return b.String()
}
