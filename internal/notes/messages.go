package notes

import (
	"fmt"
	"strings"
)

// User-facing message text. The dispatcher consumes the reply channel exactly
// once per event with one of these; the pipeline pushes exactly one outcome
// message per job.
const (
	msgUsageHint = "Usage: /sum <text to summarize>"

	msgAckSummary = "Summarizing your note, I'll send the result shortly..."
	msgAckAudio   = "Audio received! Transcribing it now, I'll send the result shortly..."
	msgAckImage   = "Image received! Analyzing it now, I'll send the result shortly..."

	msgApology = "Sorry, something went wrong while processing your message. Please try again later."
)

func composeSummaryResult(summary, category string, tags []string, savedOK bool) string {
	var b strings.Builder
	if savedOK {
		b.WriteString("Summary note saved ✅\n")
	} else {
		b.WriteString("Here is your summary, but saving the note failed (storage error) ⚠️\n")
	}
	fmt.Fprintf(&b, "\nSummary: %s\n", summary)
	fmt.Fprintf(&b, "Category: %s\n", category)
	fmt.Fprintf(&b, "Tags: %s", strings.Join(tags, ", "))
	return b.String()
}

func composeAudioResult(transcript string, tags []string, savedOK bool) string {
	var b strings.Builder
	if savedOK {
		b.WriteString("Audio note saved ✅\n")
	} else {
		b.WriteString("Here is your transcript, but saving the note failed (storage error) ⚠️\n")
	}
	fmt.Fprintf(&b, "\nTranscript: %s\n", transcript)
	fmt.Fprintf(&b, "Tags: %s", strings.Join(tags, ", "))
	return b.String()
}

func composeImageResult(description string, tags []string, link string, savedOK bool) string {
	var b strings.Builder
	if savedOK {
		b.WriteString("Image note saved ✅\n")
	} else {
		b.WriteString("Here is your image analysis, but saving the note failed (storage error) ⚠️\n")
	}
	fmt.Fprintf(&b, "\nDescription: %s\n", description)
	fmt.Fprintf(&b, "Tags: %s", strings.Join(tags, ", "))
	if link != "" {
		fmt.Fprintf(&b, "\nLink: %s", link)
	}
	return b.String()
}
