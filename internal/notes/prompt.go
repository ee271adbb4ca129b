package notes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
)

// prompt is the pair of chat messages sent to the summarizer.
type prompt struct {
	System string
	User   string
}

// buildPrompt renders the room's transcript and participation stats
// into summarizer instructions. System messages carry no meeting
// content and are excluded everywhere. Returns false when nothing
// summarizable remains.
func buildPrompt(roomName string, participants []entities.Participant, messages []entities.Message) (prompt, bool) {
	var lines []string
	counts := make(map[string]int)
	total := 0
	for _, m := range messages {
		if m.IsSystem {
			continue
		}
		total++
		counts[m.SenderUsername]++
		lines = append(lines, m.SenderUsername+": "+m.Text)
	}
	if total == 0 {
		return prompt{}, false
	}

	usernames := make([]string, 0, len(participants))
	for _, p := range participants {
		usernames = append(usernames, p.Username)
	}
	sort.Strings(usernames)

	type speaker struct {
		name  string
		count int
	}
	speakers := make([]speaker, 0, len(counts))
	for name, count := range counts {
		speakers = append(speakers, speaker{name, count})
	}
	sort.Slice(speakers, func(i, j int) bool {
		if speakers[i].count != speakers[j].count {
			return speakers[i].count > speakers[j].count
		}
		return speakers[i].name < speakers[j].name
	})
	stats := make([]string, len(speakers))
	for i, s := range speakers {
		pct := int(float64(s.count)/float64(total)*100 + 0.5)
		stats[i] = fmt.Sprintf("%s (%d messages, %d%% participation)", s.name, s.count, pct)
	}

	system := fmt.Sprintf(`You are an AI assistant that generates comprehensive, well-organized meeting notes from conversation transcripts.

Meeting Information:
- Room: %s
- Number of Participants: %d
- Participants: %s
- Active Speakers: %s
- Total Messages: %d
- Timestamp: %s

Instructions:
1. Organize the notes into clearly labeled sections using proper Markdown formatting:
   - Format section titles as Markdown headings (e.g., "# Summary", "## Key Discussion Points")
   - Use "# Meeting Notes" as the main title
   - Use second-level headings (##) for major sections like "Summary", "Key Discussion Points", etc.
   - Use third-level headings (###) for sub-sections if needed

2. Focus on extracting meaningful content and eliminating small talk or irrelevant exchanges.
3. Maintain a professional, concise tone.
4. Use Markdown bullet points (* or -) for readability.
5. Include specific details mentioned (dates, numbers, proper nouns).
6. If the discussion is technical, preserve technical terms accurately.
7. Format the notes in a clean, readable Markdown structure.
8. Include participant information in the header section.

Generate meeting notes that would be immediately useful to participants as a record of the conversation.`,
		roomName, len(participants), strings.Join(usernames, ", "), strings.Join(stats, ", "), total,
		time.Now().UTC().Format(time.RFC3339))

	user := "Please generate meeting notes from the following conversation transcript:\n\n" + strings.Join(lines, "\n")

	return prompt{System: system, User: user}, true
}
