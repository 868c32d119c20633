package aigateway

func classifyPrompt(description string) string {
	return "Decide whether the following scam report describes a genuine incident by looking for common scam red flags " +
		"such as phishing links, impersonation, urgency or requests for credentials. " +
		"Answer with a single word: true or false.\n\n" +
		"Incident description:\n" + description
}

func summarizePrompt(text string) string {
	return "Summarise the scam into a short title, a scam type, and content describing the scam and how to avoid falling for it.\n" +
		"Do not use Markdown. Respond only with a single valid JSON object with the string keys \"title\", \"type\" and \"content\".\n" +
		"Use \\n inside the content string for line breaks.\n\n" +
		"Incident description:\n" + text
}

func chatPrompt(message string) string {
	return "You are FraudWatch, an assistant that raises awareness about scams and helps people avoid and report them. " +
		"Users can report a scam with /report. " +
		"Reply in under five sentences to the user's message:\n" + message
}
