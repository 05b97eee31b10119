package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyCorpus is returned when notes or MCQs are requested before any
// document has been indexed.
var ErrEmptyCorpus = errors.New("no documents indexed for this session")

const (
	expectedQuestions = 10
	expectedOptions   = 4
)

var (
	questionRe  = regexp.MustCompile(`(?m)^\s*(\d+)[.)]\s+\S`)
	optionRe    = regexp.MustCompile(`(?m)^\s*\(?([A-D])[.)]\s+\S`)
	answerRe    = regexp.MustCompile(`(?m)^\s*(\d+)[.)]\s*\(?([A-D])\)?\s*$`)
	answerKeyRe = regexp.MustCompile(`(?i)answer\s*key\s*:?`)
)

// ValidateMCQ checks the shape the MCQ template asks for: 10 numbered
// questions, 4 options (A-D) each, and a consolidated answer key covering
// 1-10. Findings are human-readable warnings; callers log them and store the
// content verbatim regardless.
func ValidateMCQ(text string) []string {
	var findings []string

	keyLoc := answerKeyRe.FindStringIndex(text)
	body := text
	key := ""
	if keyLoc == nil {
		findings = append(findings, "answer key section not found")
	} else {
		body = text[:keyLoc[0]]
		key = text[keyLoc[1]:]
	}

	questions := questionRe.FindAllStringSubmatch(body, -1)
	if len(questions) != expectedQuestions {
		findings = append(findings, fmt.Sprintf("expected %d questions, found %d", expectedQuestions, len(questions)))
	}

	options := optionRe.FindAllStringSubmatch(body, -1)
	if len(questions) > 0 && len(options) != len(questions)*expectedOptions {
		findings = append(findings, fmt.Sprintf("expected %d options for %d questions, found %d",
			len(questions)*expectedOptions, len(questions), len(options)))
	}

	if key != "" {
		answers := answerRe.FindAllStringSubmatch(key, -1)
		if len(answers) != expectedQuestions {
			findings = append(findings, fmt.Sprintf("answer key lists %d answers, expected %d", len(answers), expectedQuestions))
		} else {
			for i, a := range answers {
				if strings.TrimSpace(a[1]) != fmt.Sprintf("%d", i+1) {
					findings = append(findings, fmt.Sprintf("answer key out of order at position %d", i+1))
					break
				}
			}
		}
	}

	return findings
}
