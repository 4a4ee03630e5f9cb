package devserver

import (
	"regexp"
	"sort"
	"strings"
)

var candidateLine = regexp.MustCompile(`^\s*([^\s:]+):\s*(.+)$`)

const situationMarker = "The care situation is:"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type candidate struct {
	id    string
	title string
	score int
}

// rankCandidates stands in for the model: it reads "id: title" lines from the
// system messages and returns the ids of the two titles sharing the most
// words with the care situation in the last user message
func rankCandidates(messages []chatMessage) []string {
	var candidates []candidate
	situation := ""
	for _, m := range messages {
		switch m.Role {
		case "system":
			for _, line := range strings.Split(m.Content, "\n") {
				if match := candidateLine.FindStringSubmatch(line); match != nil {
					candidates = append(candidates, candidate{id: match[1], title: match[2]})
				}
			}
		case "user":
			situation = m.Content
			if i := strings.Index(situation, situationMarker); i >= 0 {
				situation = situation[i+len(situationMarker):]
			}
		}
	}

	words := significantWords(situation)
	for i := range candidates {
		title := strings.ToLower(candidates[i].title)
		for _, w := range words {
			if strings.Contains(title, w) {
				candidates[i].score++
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var ids []string
	for i := 0; i < len(candidates) && i < 2; i++ {
		ids = append(ids, candidates[i].id)
	}
	return ids
}

func significantWords(text string) []string {
	var words []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '\'')
	}) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}
