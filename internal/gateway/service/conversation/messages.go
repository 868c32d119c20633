package conversation

const (
	msgWelcome = "Hi, I'm FraudWatch, your go-to assistant for scam reporting and fraud awareness! " +
		"I can help you understand scams, avoid them, and report any suspicious activity.\n\n" +
		"If you'd like to report a scam, simply press the button or type /report!\n\n" +
		"Else, you can ask me anything or just chat with me!"
	msgDescribe = "Please provide a brief description of the scam. Include relevant information such as:\n\n" +
		"- Where you encountered it\n" +
		"- The message or content of the scam\n" +
		"- Suspicious links or contacts"
	msgDescriptionRejected  = "Please provide a description of the scam without a / at the start."
	msgDescriptionUpdated   = "Description updated successfully!"
	msgDescriptionNeedsText = "Please describe the scam in text first. You can attach photos as evidence afterwards."
	msgEvidenceQuestion     = "Do you have any evidence to share? (Yes/No)"
	msgProvideEvidence      = "Please provide the evidence:"
	msgNewDescription       = "Please provide the new description:"
	msgEvidenceRejected     = "Please provide evidence without a / at the start."
	msgMoreEvidence         = "Do you have any more evidence to share? (Yes/No)"
	msgPhotoAdded           = "Photo evidence added. Do you have any more evidence to share?"
	msgConfirmPrompt        = "If everything looks good, press 'Confirm submission' to proceed."
	msgBackPrompt           = "Press 'Back' to return to options."
	msgCancelled            = "Report cancelled. Nothing was submitted."
	msgUnsupportedMedia     = "That's a nice photo! But sadly I can't interpret that. Please use text instead!"
	msgChatUnavailable      = "Oops, something went wrong! Please try again, or wait a while."
	msgInternalError        = "Sorry, something went wrong on our side. Please try again."
)
