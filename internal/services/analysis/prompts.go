package analysis

import "fmt"

func summaryPrompt(transcript string) string {
	return fmt.Sprintf(`Based on the following meeting transcript, provide a concise summary of the key discussion points, decisions made, and overall context of the meeting.

Transcript:
%s

Please provide a clear, well-structured summary.`, transcript)
}

func actionItemsPrompt(transcript string) string {
	return fmt.Sprintf(`Based on the following meeting transcript, extract all action items, tasks, and follow-ups that were mentioned or assigned.

Transcript:
%s

Please list all action items in a clear, bullet-point format. Include who is responsible if mentioned, and any deadlines if specified.`, transcript)
}
